//go:build test

package elfmeta_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3akur6/checksec/internal/elfmeta"
	elfmetatesting "github.com/3akur6/checksec/internal/elfmeta/testing"
)

func parse(t *testing.T, b *elfmetatesting.Builder) *elfmeta.Metadata {
	t.Helper()

	f, err := elf.NewFile(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	md, err := elfmeta.FromELF(f)
	require.NoError(t, err)
	return md
}

func TestFromELF_StaticExecutable(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_EXEC)
	b.Progs = []elfmetatesting.Prog{
		{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X, Vaddr: 0x400000},
		{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_W, Vaddr: 0x401000},
	}

	md := parse(t, b)

	assert.Equal(t, elfmeta.TypeExecutable, md.Type)
	assert.Equal(t, elf.EM_X86_64, md.Machine)
	assert.Equal(t, elf.ELFCLASS64, md.Class)
	assert.Equal(t, elfmeta.LittleEndian, md.Endianness)
	assert.Equal(t, []elfmeta.ProgramHeader{
		{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X, Vaddr: 0x400000},
		{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_W, Vaddr: 0x401000},
	}, md.ProgramHeaders)
	assert.False(t, md.HasDynamic())
	assert.Nil(t, md.Symbols, "no dynamic string table")
}

func TestFromELF_DynamicSection(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_DYN)
	b.Dynstr = []string{"libc.so.6", "__stack_chk_fail", "__memcpy_chk", "/opt/lib"}
	b.Dynamic = []elfmetatesting.Dyn{
		{Tag: elf.DT_NEEDED, Value: b.Offset("libc.so.6")},
		{Tag: elf.DT_RUNPATH, Value: b.Offset("/opt/lib")},
		{Tag: elf.DT_FLAGS_1, Value: uint64(elf.DF_1_NOW | elf.DF_1_PIE)},
	}
	b.Progs = []elfmetatesting.Prog{
		{Type: elf.PT_GNU_STACK, Flags: elf.PF_R | elf.PF_W},
	}

	md := parse(t, b)

	assert.Equal(t, elfmeta.TypeSharedObject, md.Type)
	require.True(t, md.HasDynamic())
	assert.Equal(t, []elfmeta.DynamicEntry{
		{Tag: elf.DT_NEEDED, Value: b.Offset("libc.so.6")},
		{Tag: elf.DT_RUNPATH, Value: b.Offset("/opt/lib")},
		{Tag: elf.DT_FLAGS_1, Value: uint64(elf.DF_1_NOW | elf.DF_1_PIE)},
	}, md.Dynamic)
	assert.Equal(t, []uint64{uint64(elf.DF_1_NOW | elf.DF_1_PIE)}, md.DynamicValues(elf.DT_FLAGS_1))

	assert.True(t, md.Symbols.Has("__stack_chk_fail"))
	assert.True(t, md.Symbols.Has("__memcpy_chk"))
	assert.False(t, md.Symbols.Has(""), "empty strings are not names")
	assert.Equal(t, []string{"/opt/lib"}, md.RunPath)
	assert.Empty(t, md.RPath)
}

func TestFromELF_EmptyDynamicSection(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_DYN)
	b.Dynamic = []elfmetatesting.Dyn{}

	md := parse(t, b)

	assert.True(t, md.HasDynamic(), "a present but empty dynamic section is not absent")
	assert.Empty(t, md.Dynamic)
}

func TestFromELF_StrippedSectionHeaders(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_DYN)
	b.StripSections = true
	b.Dynstr = []string{"libc.so.6", "__stack_chk_fail"}
	b.Dynamic = []elfmetatesting.Dyn{
		{Tag: elf.DT_NEEDED, Value: b.Offset("libc.so.6")},
	}

	md := parse(t, b)

	require.NotNil(t, md.Symbols, "string table is found through DT_STRTAB")
	assert.True(t, md.Symbols.Has("__stack_chk_fail"))
	assert.True(t, md.Symbols.Has("libc.so.6"))
}

func TestFromELF_StrtabOutsideLoadSegments(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_DYN)
	b.StripSections = true
	b.Dynamic = []elfmetatesting.Dyn{
		{Tag: elf.DT_STRTAB, Value: 0xdead0000},
		{Tag: elf.DT_STRSZ, Value: 16},
	}

	md := parse(t, b)

	assert.Nil(t, md.Symbols)
}

func TestFromELF_StrtabAddressWrapsAround(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_DYN)
	b.StripSections = true
	b.Progs = []elfmetatesting.Prog{
		{Type: elf.PT_LOAD, Flags: elf.PF_R, Vaddr: 0x1000, Filesz: 0x40},
	}
	// (addr - 0x1000) + size wraps to 0x40, which fits the segment if computed naively.
	b.Dynamic = []elfmetatesting.Dyn{
		{Tag: elf.DT_STRTAB, Value: 0xffffffffffffff00},
		{Tag: elf.DT_STRSZ, Value: 0x1140},
	}

	md := parse(t, b)

	assert.Nil(t, md.Symbols, "an out-of-range string table is treated as absent")
}

func TestFromELF_32BitBigEndian(t *testing.T) {
	b := elfmetatesting.NewBuilder(elf.ET_EXEC)
	b.Class = elf.ELFCLASS32
	b.ByteOrder = binary.BigEndian
	b.Machine = elf.EM_MIPS
	b.Dynstr = []string{"__printf_chk"}
	b.Dynamic = []elfmetatesting.Dyn{
		{Tag: elf.DT_BIND_NOW, Value: 0},
	}
	b.Progs = []elfmetatesting.Prog{
		{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X, Vaddr: 0x10000},
		{Type: elf.PT_GNU_RELRO, Flags: elf.PF_R, Vaddr: 0x20000},
	}

	md := parse(t, b)

	assert.Equal(t, elf.ELFCLASS32, md.Class)
	assert.Equal(t, elfmeta.BigEndian, md.Endianness)
	assert.Equal(t, elf.EM_MIPS, md.Machine)
	assert.Equal(t, []elfmeta.DynamicEntry{{Tag: elf.DT_BIND_NOW, Value: 0}}, md.Dynamic)
	assert.True(t, md.Symbols.Has("__printf_chk"))
}

func TestSymbolSet(t *testing.T) {
	var nilSet elfmeta.SymbolSet
	assert.False(t, nilSet.Has("x"))
	assert.False(t, nilSet.AnyHasSuffix("x"))

	s := elfmeta.NewSymbolSet("a", "", "b_chk", "a")
	assert.Len(t, s, 2)
	assert.True(t, s.AnyHasSuffix("_chk"))
}

func TestFileTypeFromELF(t *testing.T) {
	assert.Equal(t, elfmeta.TypeExecutable, elfmeta.FileTypeFromELF(elf.ET_EXEC))
	assert.Equal(t, elfmeta.TypeSharedObject, elfmeta.FileTypeFromELF(elf.ET_DYN))
	assert.Equal(t, elfmeta.TypeRelocatable, elfmeta.FileTypeFromELF(elf.ET_REL))
	assert.Equal(t, elfmeta.TypeOther, elfmeta.FileTypeFromELF(elf.ET_CORE))
	assert.Equal(t, "shared_object", elfmeta.TypeSharedObject.String())
}

func TestObjectVariants(t *testing.T) {
	objects := []elfmeta.Object{
		&elfmeta.ELF{Metadata: &elfmeta.Metadata{}},
		&elfmeta.Unsupported{Format: elfmeta.KindPE, Detail: "machine=IMAGE_FILE_MACHINE_AMD64"},
	}

	var kinds []string
	for _, obj := range objects {
		switch o := obj.(type) {
		case *elfmeta.ELF:
			kinds = append(kinds, o.Kind().String())
		case *elfmeta.Unsupported:
			kinds = append(kinds, o.Kind().String())
		}
	}
	assert.Equal(t, []string{"elf", "pe"}, kinds)
}
