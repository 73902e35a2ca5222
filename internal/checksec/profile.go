package checksec

import "fmt"

// Relro is the strength of Relocation Read-Only hardening.
type Relro int

const (
	// RelroNone indicates there is no PT_GNU_RELRO segment.
	RelroNone Relro = iota

	// RelroPartial indicates a PT_GNU_RELRO segment without eager binding.
	// The GOT entries resolved lazily remain writable.
	RelroPartial

	// RelroFull indicates a PT_GNU_RELRO segment together with BIND_NOW.
	RelroFull
)

// String returns a string representation of Relro.
func (r Relro) String() string {
	switch r {
	case RelroNone:
		return "none"
	case RelroPartial:
		return "partial"
	case RelroFull:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Relro) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// PIE is the position-independence classification.
type PIE int

const (
	// NoPIE is a fixed-address executable.
	NoPIE PIE = iota

	// PIEExecutable is a shared-object-typed main executable carrying DF_1_PIE.
	PIEExecutable

	// PIESharedObject is an ordinary shared library.
	PIESharedObject

	// PIERelocatable is an unlinked object file.
	PIERelocatable
)

// String returns a string representation of PIE.
func (p PIE) String() string {
	switch p {
	case NoPIE:
		return "no_pie"
	case PIEExecutable:
		return "pie"
	case PIESharedObject:
		return "dso"
	case PIERelocatable:
		return "rel"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PIE) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// IsRandomized reports whether the object loads at a randomized base.
// Both PIE executables and shared objects do.
func (p PIE) IsRandomized() bool {
	return p == PIEExecutable || p == PIESharedObject
}

// SecurityProfile is the classification result for one ELF file.
// It is built once by Classify and never modified.
type SecurityProfile struct {
	// Architecture is "<machine>-<bits>-<endian>", e.g. "X86_64-64-little".
	Architecture string `json:"arch" yaml:"arch"`

	Relro   Relro `json:"relro" yaml:"relro"`
	Canary  bool  `json:"canary" yaml:"canary"`
	NX      bool  `json:"nx" yaml:"nx"`
	PIE     PIE   `json:"pie" yaml:"pie"`
	Fortify bool  `json:"fortify" yaml:"fortify"`
	RWX     bool  `json:"rwx" yaml:"rwx"`

	// BaseAddress is the lowest PT_LOAD address. It is 0 for shared objects.
	BaseAddress uint64 `json:"base_address" yaml:"base_address"`

	RPath   []string `json:"rpath,omitempty" yaml:"rpath,omitempty"`
	RunPath []string `json:"runpath,omitempty" yaml:"runpath,omitempty"`
}
