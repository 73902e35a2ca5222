//go:build test

// Package elfmetatesting provides test helpers that synthesize ELF files in memory.
package elfmetatesting

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Prog describes one program header to emit.
type Prog struct {
	Type  elf.ProgType
	Flags elf.ProgFlag
	Vaddr uint64

	// Filesz is written as both p_filesz and p_memsz. The segment's file offset is 0.
	Filesz uint64
}

// Dyn is one dynamic entry to emit.
type Dyn struct {
	Tag   elf.DynTag
	Value uint64
}

// StrippedLoadBase is the virtual address of the PT_LOAD segment added for
// section-stripped files.
const StrippedLoadBase = 0x10000

// Builder assembles a minimal but well-formed ELF image.
//
// Dynamic == nil omits the dynamic section entirely; Dynstr == nil omits the
// dynamic string table. With StripSections the section header table is not
// written and the string table is reachable only through DT_STRTAB/DT_STRSZ,
// which the builder adds along with a covering PT_LOAD at StrippedLoadBase.
type Builder struct {
	Type      elf.Type
	Machine   elf.Machine
	Class     elf.Class
	ByteOrder binary.ByteOrder

	Progs   []Prog
	Dynamic []Dyn
	Dynstr  []string

	StripSections bool
}

// NewBuilder returns a Builder for a little-endian x86-64 file of the given type.
func NewBuilder(typ elf.Type) *Builder {
	return &Builder{
		Type:      typ,
		Machine:   elf.EM_X86_64,
		Class:     elf.ELFCLASS64,
		ByteOrder: binary.LittleEndian,
	}
}

// Offset returns the offset of name within the emitted dynamic string table.
// name must be one of Dynstr.
func (b *Builder) Offset(name string) uint64 {
	off := uint64(1)
	for _, s := range b.Dynstr {
		if s == name {
			return off
		}
		off += uint64(len(s)) + 1
	}
	panic("elfmetatesting: " + name + " not in Dynstr")
}

type layout struct {
	ehsize, phentsize, shentsize, dynentsize int
}

func (b *Builder) layout() layout {
	if b.Class == elf.ELFCLASS32 {
		return layout{ehsize: 52, phentsize: 32, shentsize: 40, dynentsize: 8}
	}
	return layout{ehsize: 64, phentsize: 56, shentsize: 64, dynentsize: 16}
}

// Bytes renders the ELF image.
func (b *Builder) Bytes() []byte {
	l := b.layout()

	var strtab []byte
	if b.Dynstr != nil {
		strtab = []byte("\x00" + strings.Join(b.Dynstr, "\x00") + "\x00")
	}

	dyns := append([]Dyn(nil), b.Dynamic...)
	addLoad := b.StripSections && strtab != nil

	progs := append([]Prog(nil), b.Progs...)
	nprogs := len(progs)
	if b.Dynamic != nil {
		nprogs++
	}
	if addLoad {
		nprogs++
	}

	phoff := l.ehsize
	strtabOff := phoff + nprogs*l.phentsize
	dynOff := strtabOff + len(strtab)

	if addLoad {
		dyns = append(dyns,
			Dyn{Tag: elf.DT_STRTAB, Value: StrippedLoadBase + uint64(strtabOff)},
			Dyn{Tag: elf.DT_STRSZ, Value: uint64(len(strtab))},
		)
	}
	var dynSize int
	if b.Dynamic != nil {
		dynSize = (len(dyns) + 1) * l.dynentsize
	}
	end := dynOff + dynSize

	buf := make([]byte, end)
	b.putHeader(buf, l, phoff, nprogs)

	off := phoff
	for _, p := range progs {
		b.putProg(buf[off:], p.Type, p.Flags, 0, p.Vaddr, p.Filesz)
		off += l.phentsize
	}
	if b.Dynamic != nil {
		b.putProg(buf[off:], elf.PT_DYNAMIC, elf.PF_R|elf.PF_W, uint64(dynOff), 0, uint64(dynSize))
		off += l.phentsize
	}
	if addLoad {
		b.putProg(buf[off:], elf.PT_LOAD, elf.PF_R, 0, StrippedLoadBase, uint64(end))
	}

	copy(buf[strtabOff:], strtab)

	if b.Dynamic != nil {
		off = dynOff
		for _, d := range dyns {
			b.putDyn(buf[off:], d)
			off += l.dynentsize
		}
	}

	if !b.StripSections && (strtab != nil || b.Dynamic != nil) {
		buf = b.appendSections(buf, l, strtabOff, len(strtab), dynOff, dynSize)
	}
	return buf
}

func (b *Builder) putHeader(buf []byte, l layout, phoff, nprogs int) {
	bo := b.ByteOrder
	copy(buf, elf.ELFMAG)
	buf[elf.EI_CLASS] = byte(b.Class)
	if bo == binary.BigEndian {
		buf[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	} else {
		buf[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	}
	buf[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	bo.PutUint16(buf[16:], uint16(b.Type))
	bo.PutUint16(buf[18:], uint16(b.Machine))
	bo.PutUint32(buf[20:], uint32(elf.EV_CURRENT))

	if b.Class == elf.ELFCLASS32 {
		bo.PutUint32(buf[28:], uint32(phoff))
		bo.PutUint16(buf[40:], uint16(l.ehsize))
		bo.PutUint16(buf[42:], uint16(l.phentsize))
		bo.PutUint16(buf[44:], uint16(nprogs))
		bo.PutUint16(buf[46:], uint16(l.shentsize))
		return
	}
	bo.PutUint64(buf[32:], uint64(phoff))
	bo.PutUint16(buf[52:], uint16(l.ehsize))
	bo.PutUint16(buf[54:], uint16(l.phentsize))
	bo.PutUint16(buf[56:], uint16(nprogs))
	bo.PutUint16(buf[58:], uint16(l.shentsize))
}

func (b *Builder) putProg(buf []byte, typ elf.ProgType, flags elf.ProgFlag, off, vaddr, filesz uint64) {
	bo := b.ByteOrder
	if b.Class == elf.ELFCLASS32 {
		bo.PutUint32(buf[0:], uint32(typ))
		bo.PutUint32(buf[4:], uint32(off))
		bo.PutUint32(buf[8:], uint32(vaddr))
		bo.PutUint32(buf[12:], uint32(vaddr))
		bo.PutUint32(buf[16:], uint32(filesz))
		bo.PutUint32(buf[20:], uint32(filesz))
		bo.PutUint32(buf[24:], uint32(flags))
		return
	}
	bo.PutUint32(buf[0:], uint32(typ))
	bo.PutUint32(buf[4:], uint32(flags))
	bo.PutUint64(buf[8:], off)
	bo.PutUint64(buf[16:], vaddr)
	bo.PutUint64(buf[24:], vaddr)
	bo.PutUint64(buf[32:], filesz)
	bo.PutUint64(buf[40:], filesz)
}

func (b *Builder) putDyn(buf []byte, d Dyn) {
	if b.Class == elf.ELFCLASS32 {
		b.ByteOrder.PutUint32(buf[0:], uint32(d.Tag))
		b.ByteOrder.PutUint32(buf[4:], uint32(d.Value))
		return
	}
	b.ByteOrder.PutUint64(buf[0:], uint64(d.Tag))
	b.ByteOrder.PutUint64(buf[8:], d.Value)
}

type section struct {
	name      uint32
	typ       elf.SectionType
	off, size uint64
	link      uint32
}

// appendSections appends .shstrtab and a section header table describing the
// dynamic string table and the dynamic section, then patches the ELF header.
func (b *Builder) appendSections(buf []byte, l layout, strtabOff, strtabSize, dynOff, dynSize int) []byte {
	shstrtab := []byte("\x00.dynstr\x00.dynamic\x00.shstrtab\x00")
	const (
		nameDynstr   = 1
		nameDynamic  = 9
		nameShstrtab = 18
	)

	sections := []section{{}}
	dynstrIndex := uint32(0)
	if strtabSize > 0 {
		dynstrIndex = uint32(len(sections))
		sections = append(sections, section{name: nameDynstr, typ: elf.SHT_STRTAB, off: uint64(strtabOff), size: uint64(strtabSize)})
	}
	if b.Dynamic != nil {
		sections = append(sections, section{name: nameDynamic, typ: elf.SHT_DYNAMIC, off: uint64(dynOff), size: uint64(dynSize), link: dynstrIndex})
	}
	shstrOff := len(buf)
	sections = append(sections, section{name: nameShstrtab, typ: elf.SHT_STRTAB, off: uint64(shstrOff), size: uint64(len(shstrtab))})
	buf = append(buf, shstrtab...)

	shoff := len(buf)
	buf = append(buf, make([]byte, len(sections)*l.shentsize)...)
	bo := b.ByteOrder
	for i, s := range sections {
		sh := buf[shoff+i*l.shentsize:]
		bo.PutUint32(sh[0:], s.name)
		bo.PutUint32(sh[4:], uint32(s.typ))
		if b.Class == elf.ELFCLASS32 {
			bo.PutUint32(sh[16:], uint32(s.off))
			bo.PutUint32(sh[20:], uint32(s.size))
			bo.PutUint32(sh[24:], s.link)
			continue
		}
		bo.PutUint64(sh[24:], s.off)
		bo.PutUint64(sh[32:], s.size)
		bo.PutUint32(sh[40:], s.link)
	}

	shnum := uint16(len(sections))
	shstrndx := shnum - 1
	if b.Class == elf.ELFCLASS32 {
		bo.PutUint32(buf[32:], uint32(shoff))
		bo.PutUint16(buf[48:], shnum)
		bo.PutUint16(buf[50:], shstrndx)
	} else {
		bo.PutUint64(buf[40:], uint64(shoff))
		bo.PutUint16(buf[60:], shnum)
		bo.PutUint16(buf[62:], shstrndx)
	}
	return buf
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, data, 0o644) //nolint:gosec // test helper: 0644 is intentional for test files
	require.NoError(t, err)
	return path
}

// Write renders b into dir/name and returns the path.
func (b *Builder) Write(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, b.Bytes())
}
