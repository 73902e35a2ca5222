package elfmeta

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// maxTableSize bounds how much of a dynamic section or string table is read.
	maxTableSize = 16 << 20

	dyn32Size = 8
	dyn64Size = 16
)

// FromELF extracts the Metadata view from a parsed ELF file.
// The returned Metadata does not reference f, so f may be closed afterwards.
func FromELF(f *elf.File) (*Metadata, error) {
	md := &Metadata{
		Type:       FileTypeFromELF(f.Type),
		Machine:    f.Machine,
		Class:      f.Class,
		Endianness: LittleEndian,
	}
	if f.Data == elf.ELFDATA2MSB {
		md.Endianness = BigEndian
	}

	md.ProgramHeaders = make([]ProgramHeader, 0, len(f.Progs))
	for _, p := range f.Progs {
		md.ProgramHeaders = append(md.ProgramHeaders, ProgramHeader{
			Type:  p.Type,
			Flags: p.Flags,
			Vaddr: p.Vaddr,
		})
	}

	dynData, err := readDynamic(f)
	if err != nil {
		return nil, err
	}
	if dynData != nil {
		md.Dynamic, err = decodeDynamic(dynData, f.Class, f.ByteOrder)
		if err != nil {
			return nil, err
		}
	}

	strtab, err := readDynstr(f, md)
	if err != nil {
		return nil, err
	}
	if strtab != nil {
		md.Symbols = NewSymbolSet()
		for _, name := range bytes.Split(strtab, []byte{0}) {
			md.Symbols.Add(string(name))
		}
		md.RPath = lookupStrings(strtab, md.DynamicValues(elf.DT_RPATH))
		md.RunPath = lookupStrings(strtab, md.DynamicValues(elf.DT_RUNPATH))
	}

	return md, nil
}

// readDynamic returns the raw dynamic table, preferring the PT_DYNAMIC segment
// over the .dynamic section. It returns nil, nil when the file has neither.
func readDynamic(f *elf.File) ([]byte, error) {
	for _, p := range f.Progs {
		if p.Type != elf.PT_DYNAMIC {
			continue
		}
		if p.Filesz > maxTableSize {
			return nil, fmt.Errorf("%w: PT_DYNAMIC size %d exceeds limit", ErrMalformedDynamic, p.Filesz)
		}
		data, err := io.ReadAll(p.Open())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDynamic, err)
		}
		return data, nil
	}

	sec := f.SectionByType(elf.SHT_DYNAMIC)
	if sec == nil {
		return nil, nil
	}
	if sec.Size > maxTableSize {
		return nil, fmt.Errorf("%w: .dynamic size %d exceeds limit", ErrMalformedDynamic, sec.Size)
	}
	data, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDynamic, err)
	}
	return data, nil
}

// decodeDynamic decodes tag/value pairs up to DT_NULL or the end of data.
// A present but empty table yields a non-nil empty slice.
func decodeDynamic(data []byte, class elf.Class, bo binary.ByteOrder) ([]DynamicEntry, error) {
	entries := []DynamicEntry{}

	switch class {
	case elf.ELFCLASS32:
		for off := 0; off+dyn32Size <= len(data); off += dyn32Size {
			tag := elf.DynTag(int32(bo.Uint32(data[off:])))
			if tag == elf.DT_NULL {
				break
			}
			entries = append(entries, DynamicEntry{Tag: tag, Value: uint64(bo.Uint32(data[off+4:]))})
		}
	case elf.ELFCLASS64:
		for off := 0; off+dyn64Size <= len(data); off += dyn64Size {
			tag := elf.DynTag(int64(bo.Uint64(data[off:])))
			if tag == elf.DT_NULL {
				break
			}
			entries = append(entries, DynamicEntry{Tag: tag, Value: bo.Uint64(data[off+8:])})
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedClass, class)
	}

	return entries, nil
}

// readDynstr returns the dynamic string table. The .dynstr section is used when
// present; otherwise DT_STRTAB/DT_STRSZ are resolved through the PT_LOAD segments,
// which covers binaries whose section headers were stripped.
// It returns nil, nil when no table can be found.
func readDynstr(f *elf.File, md *Metadata) ([]byte, error) {
	if sec := f.Section(".dynstr"); sec != nil && sec.Type != elf.SHT_NOBITS {
		if sec.Size > maxTableSize {
			return nil, fmt.Errorf("%w: .dynstr size %d exceeds limit", ErrMalformedStringTable, sec.Size)
		}
		data, err := sec.Data()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedStringTable, err)
		}
		return data, nil
	}

	addrs := md.DynamicValues(elf.DT_STRTAB)
	sizes := md.DynamicValues(elf.DT_STRSZ)
	if len(addrs) == 0 || len(sizes) == 0 {
		return nil, nil
	}
	addr, size := addrs[0], sizes[0]
	if size > maxTableSize {
		return nil, fmt.Errorf("%w: DT_STRSZ %d exceeds limit", ErrMalformedStringTable, size)
	}

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || addr < p.Vaddr {
			continue
		}
		off := addr - p.Vaddr
		if off > p.Filesz || size > p.Filesz-off {
			continue
		}
		buf := make([]byte, size)
		if _, err := p.ReadAt(buf, int64(off)); err != nil { //nolint:gosec // bounded by Filesz above
			return nil, fmt.Errorf("%w: %w", ErrMalformedStringTable, err)
		}
		return buf, nil
	}

	// DT_STRTAB points outside every loadable segment; treat as absent.
	return nil, nil
}

// lookupStrings returns the NUL-terminated strings at the given offsets of strtab.
// Out-of-range offsets are skipped.
func lookupStrings(strtab []byte, offsets []uint64) []string {
	var out []string
	for _, off := range offsets {
		if off >= uint64(len(strtab)) {
			continue
		}
		s := strtab[off:]
		if i := bytes.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		out = append(out, string(s))
	}
	return out
}
