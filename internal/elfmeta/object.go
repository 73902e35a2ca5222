package elfmeta

import "fmt"

// Kind identifies the format of a parsed object.
type Kind int

const (
	// KindELF is an ELF object; the only kind that is analyzed.
	KindELF Kind = iota
	// KindMachO is a thin Mach-O object.
	KindMachO
	// KindMachOUniversal is a multi-architecture (fat) Mach-O object.
	KindMachOUniversal
	// KindPE is a PE/COFF image.
	KindPE
	// KindArchive is a Unix ar archive (static library).
	KindArchive
)

// String returns a string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindELF:
		return "elf"
	case KindMachO:
		return "mach-o"
	case KindMachOUniversal:
		return "mach-o-universal"
	case KindPE:
		return "pe"
	case KindArchive:
		return "archive"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Object is a parsed object file. It is implemented only by *ELF and *Unsupported,
// so a type switch over those two cases is exhaustive.
type Object interface {
	Kind() Kind
	isObject()
}

// ELF is the supported object variant.
type ELF struct {
	Metadata *Metadata
}

// Kind returns KindELF.
func (*ELF) Kind() Kind { return KindELF }

func (*ELF) isObject() {}

// Unsupported is a recognized but unanalyzed object format.
type Unsupported struct {
	Format Kind

	// Detail is whatever identifying information the parser could extract,
	// e.g. "cpu=ARM64 type=EXECUTE". It may be empty.
	Detail string
}

// Kind returns the format of the unsupported object.
func (u *Unsupported) Kind() Kind { return u.Format }

func (*Unsupported) isObject() {}
