package checksec

import (
	"debug/elf"
	"strings"

	"github.com/3akur6/checksec/internal/elfmeta"
)

// Symbols recognized as stack protector support.
const (
	// SymStackChkFail is the GCC/Clang stack protector failure handler.
	SymStackChkFail = "__stack_chk_fail"

	// SymIntelSecurityCookie is the Intel compiler security cookie.
	SymIntelSecurityCookie = "__intel_security_cookie"

	// FortifySuffix marks the checked variants substituted by _FORTIFY_SOURCE.
	FortifySuffix = "_chk"
)

// rwx is the exact PT_GNU_STACK flag word that leaves the stack executable.
const rwx = elf.PF_R | elf.PF_W | elf.PF_X

// Classify derives the SecurityProfile of md. It never fails.
func Classify(md *elfmeta.Metadata) SecurityProfile {
	nx := NX(md)
	pie := ClassifyPIE(md)

	return SecurityProfile{
		Architecture: Architecture(md),
		Relro:        ClassifyRelro(md),
		Canary:       HasCanary(md.Symbols),
		NX:           nx,
		PIE:          pie,
		Fortify:      HasFortify(md.Symbols),
		RWX:          HasRWXSegment(md.ProgramHeaders, nx),
		BaseAddress:  BaseAddress(md),
		RPath:        md.RPath,
		RunPath:      md.RunPath,
	}
}

// Architecture formats machine, class and byte order as "<machine>-<bits>-<endian>".
func Architecture(md *elfmeta.Metadata) string {
	machine := strings.TrimPrefix(md.Machine.String(), "EM_")
	bits := strings.TrimPrefix(md.Class.String(), "ELFCLASS")
	return strings.Join([]string{machine, bits, md.Endianness.String()}, "-")
}

// BaseAddress returns the lowest PT_LOAD virtual address, or 0 for shared objects.
// A zero address seen first is replaced by the next PT_LOAD address; a zero
// address after a non-zero one is ignored.
func BaseAddress(md *elfmeta.Metadata) uint64 {
	if md.Type == elfmeta.TypeSharedObject {
		return 0
	}

	var addr uint64
	for _, ph := range md.ProgramHeaders {
		if ph.Type != elf.PT_LOAD {
			continue
		}
		if addr == 0 || (ph.Vaddr != 0 && ph.Vaddr < addr) {
			addr = ph.Vaddr
		}
	}
	return addr
}

// ClassifyRelro returns RelroFull when a PT_GNU_RELRO segment exists and any of
// DT_BIND_NOW, DF_BIND_NOW in DT_FLAGS or DF_1_NOW in DT_FLAGS_1 is present.
// Without a dynamic section the result is at most RelroPartial.
func ClassifyRelro(md *elfmeta.Metadata) Relro {
	if !hasSegment(md.ProgramHeaders, elf.PT_GNU_RELRO) {
		return RelroNone
	}
	if bindNow(md.Dynamic) {
		return RelroFull
	}
	return RelroPartial
}

func bindNow(dyns []elfmeta.DynamicEntry) bool {
	for _, d := range dyns {
		switch d.Tag {
		case elf.DT_BIND_NOW:
			return true
		case elf.DT_FLAGS:
			if elf.DynFlag(d.Value)&elf.DF_BIND_NOW != 0 {
				return true
			}
		case elf.DT_FLAGS_1:
			if elf.DynFlag1(d.Value)&elf.DF_1_NOW != 0 {
				return true
			}
		}
	}
	return false
}

// HasCanary reports whether the dynamic string table names a stack protector symbol.
// A stripped or static binary with inlined checks is not detected.
func HasCanary(syms elfmeta.SymbolSet) bool {
	return syms.Has(SymStackChkFail) || syms.Has(SymIntelSecurityCookie)
}

// HasFortify reports whether any dynamic string ends in "_chk".
func HasFortify(syms elfmeta.SymbolSet) bool {
	return syms.AnyHasSuffix(FortifySuffix)
}

// NX reports whether the stack is non-executable. The first PT_GNU_STACK decides:
// its flags being exactly R|W|X disables NX, anything else enables it.
// Without PT_GNU_STACK the loader maps an executable stack, so NX is false.
func NX(md *elfmeta.Metadata) bool {
	for _, ph := range md.ProgramHeaders {
		if ph.Type == elf.PT_GNU_STACK {
			return ph.Flags != rwx
		}
	}
	return false
}

// HasRWXSegment reports whether any segment is writable and either readable and
// executable, or effectively executable because nx is false.
func HasRWXSegment(phs []elfmeta.ProgramHeader, nx bool) bool {
	for _, ph := range phs {
		if ph.Writable() && ((ph.Readable() && ph.Executable()) || !nx) {
			return true
		}
	}
	return false
}

// ClassifyPIE classifies position independence from the file type and, for
// shared objects, the DF_1_PIE bit of DT_FLAGS_1.
func ClassifyPIE(md *elfmeta.Metadata) PIE {
	switch md.Type {
	case elfmeta.TypeExecutable:
		return NoPIE
	case elfmeta.TypeRelocatable:
		return PIERelocatable
	case elfmeta.TypeSharedObject:
		for _, v := range md.DynamicValues(elf.DT_FLAGS_1) {
			if elf.DynFlag1(v)&elf.DF_1_PIE != 0 {
				return PIEExecutable
			}
		}
		return PIESharedObject
	default:
		return NoPIE
	}
}

func hasSegment(phs []elfmeta.ProgramHeader, typ elf.ProgType) bool {
	for _, ph := range phs {
		if ph.Type == typ {
			return true
		}
	}
	return false
}
