package elfmeta

import "errors"

// Static errors
var (
	// ErrMalformedDynamic indicates the dynamic section could not be read or decoded.
	ErrMalformedDynamic = errors.New("malformed dynamic section")

	// ErrMalformedStringTable indicates the dynamic string table could not be read.
	ErrMalformedStringTable = errors.New("malformed dynamic string table")

	// ErrUnsupportedClass indicates the ELF class is neither ELFCLASS32 nor ELFCLASS64.
	ErrUnsupportedClass = errors.New("unsupported ELF class")
)
