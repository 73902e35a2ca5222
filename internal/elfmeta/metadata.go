package elfmeta

import (
	"debug/elf"
	"fmt"
	"strings"
)

// FileType is the object file type relevant to mitigation analysis.
type FileType int

const (
	// TypeOther covers every ELF type not listed below (ET_NONE, ET_CORE, OS/processor specific).
	TypeOther FileType = iota

	// TypeExecutable is a fixed-address executable (ET_EXEC).
	TypeExecutable

	// TypeSharedObject is a shared object (ET_DYN). PIE executables use this type too.
	TypeSharedObject

	// TypeRelocatable is an unlinked object file (ET_REL).
	TypeRelocatable
)

// String returns a string representation of FileType.
func (t FileType) String() string {
	switch t {
	case TypeExecutable:
		return "executable"
	case TypeSharedObject:
		return "shared_object"
	case TypeRelocatable:
		return "relocatable"
	case TypeOther:
		return "other"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// FileTypeFromELF maps an ELF header type to a FileType.
func FileTypeFromELF(t elf.Type) FileType {
	switch t {
	case elf.ET_EXEC:
		return TypeExecutable
	case elf.ET_DYN:
		return TypeSharedObject
	case elf.ET_REL:
		return TypeRelocatable
	default:
		return TypeOther
	}
}

// Endianness is the byte order of the object file.
type Endianness int

const (
	// LittleEndian is ELFDATA2LSB.
	LittleEndian Endianness = iota
	// BigEndian is ELFDATA2MSB.
	BigEndian
)

// String returns "little" or "big".
func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ProgramHeader is one program header table entry.
type ProgramHeader struct {
	Type  elf.ProgType
	Flags elf.ProgFlag
	Vaddr uint64
}

// Readable reports whether PF_R is set.
func (p ProgramHeader) Readable() bool { return p.Flags&elf.PF_R != 0 }

// Writable reports whether PF_W is set.
func (p ProgramHeader) Writable() bool { return p.Flags&elf.PF_W != 0 }

// Executable reports whether PF_X is set.
func (p ProgramHeader) Executable() bool { return p.Flags&elf.PF_X != 0 }

// DynamicEntry is one tag/value pair of the dynamic section.
type DynamicEntry struct {
	Tag   elf.DynTag
	Value uint64
}

// SymbolSet is the set of names found in the dynamic string table.
// A nil SymbolSet means the file has no dynamic string table.
type SymbolSet map[string]struct{}

// NewSymbolSet builds a SymbolSet from names. Empty names are skipped.
func NewSymbolSet(names ...string) SymbolSet {
	s := make(SymbolSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name into the set. Adding an existing name is a no-op.
func (s SymbolSet) Add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Has reports whether name is in the set. A nil set contains nothing.
func (s SymbolSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// AnyHasSuffix reports whether any name in the set ends with suffix.
func (s SymbolSet) AnyHasSuffix(suffix string) bool {
	for name := range s {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Metadata is the read-only view of an ELF file.
//
// Dynamic is nil for files without a dynamic section (static binaries);
// Symbols is nil for files without a dynamic string table.
type Metadata struct {
	Type       FileType
	Machine    elf.Machine
	Class      elf.Class
	Endianness Endianness

	// ProgramHeaders is in on-disk order.
	ProgramHeaders []ProgramHeader

	// Dynamic is in on-disk order, excluding the terminating DT_NULL.
	Dynamic []DynamicEntry

	Symbols SymbolSet

	RPath   []string
	RunPath []string
}

// HasDynamic reports whether the file has a dynamic section.
func (m *Metadata) HasDynamic() bool {
	return m.Dynamic != nil
}

// DynamicValues returns the values of every dynamic entry with the given tag, in order.
func (m *Metadata) DynamicValues(tag elf.DynTag) []uint64 {
	var vals []uint64
	for _, d := range m.Dynamic {
		if d.Tag == tag {
			vals = append(vals, d.Value)
		}
	}
	return vals
}
