// Package objfile identifies and parses object files into elfmeta.Object values.
//
// ELF files are parsed with debug/elf and converted to the elfmeta.Metadata view.
// Mach-O, PE and ar archives are recognized and returned as *elfmeta.Unsupported
// with whatever identifying detail their parsers expose. Anything else is
// MalformedInput.
package objfile

import (
	"bytes"
	"debug/elf"
	"debug/pe"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	macho "github.com/blacktop/go-macho"

	"github.com/3akur6/checksec/internal/elfmeta"
	"github.com/3akur6/checksec/internal/safefileio"
)

const (
	machoMagic32 = 0xfeedface
	machoMagic64 = 0xfeedfacf
	fatMagic     = 0xcafebabe

	// maxFatArches separates universal binaries from Java class files, which
	// share the 0xcafebabe magic but carry a version >= 45 in the same field.
	maxFatArches = 30

	magicLen = 8
)

var (
	elfMagic     = []byte(elf.ELFMAG)
	archiveMagic = []byte("!<arch>\n")
	peMagic      = []byte("MZ")

	errUnknownMagic = errors.New("unrecognized magic")
	errTooShort     = errors.New("file too short to identify")
)

// Loader opens files through a safefileio.FileSystem and parses them.
type Loader struct {
	fs safefileio.FileSystem
}

// NewLoader creates a Loader. If fs is nil, the default safefileio.FileSystem is used.
func NewLoader(fs safefileio.FileSystem) *Loader {
	if fs == nil {
		fs = safefileio.NewFileSystem(safefileio.FileSystemConfig{})
	}
	return &Loader{fs: fs}
}

// Load opens path, parses it and closes it again on every path.
// Errors are *Error with Kind NotFound, ReadFailure or MalformedInput.
func (l *Loader) Load(path string) (obj elfmeta.Object, err error) {
	file, err := l.fs.SafeOpenFile(path)
	if err != nil {
		if safefileio.IsNotExist(err) {
			return nil, NewError(NotFound, path, err)
		}
		return nil, NewError(ReadFailure, path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = NewError(ReadFailure, path, fmt.Errorf("failed to close file: %w", closeErr))
		}
	}()

	obj, err = Parse(file)
	if err != nil {
		var readErr *readError
		if errors.As(err, &readErr) {
			return nil, NewError(ReadFailure, path, readErr.err)
		}
		return nil, NewError(MalformedInput, path, err)
	}
	return obj, nil
}

// readError marks failures of the underlying reader as opposed to bad content.
type readError struct {
	err error
}

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// Parse identifies r by its magic number and parses it.
func Parse(r io.ReaderAt) (elfmeta.Object, error) {
	magic := make([]byte, magicLen)
	n, err := r.ReadAt(magic, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &readError{err: fmt.Errorf("failed to read magic number: %w", err)}
	}
	magic = magic[:n]
	if n < 4 {
		return nil, errTooShort
	}

	switch {
	case bytes.HasPrefix(magic, elfMagic):
		return parseELF(r)
	case isMachO(magic):
		return parseMachO(r)
	case binary.BigEndian.Uint32(magic) == fatMagic:
		return parseFat(magic)
	case bytes.HasPrefix(magic, archiveMagic):
		return &elfmeta.Unsupported{Format: elfmeta.KindArchive}, nil
	case bytes.HasPrefix(magic, peMagic):
		return parsePE(r)
	default:
		return nil, fmt.Errorf("%w: % x", errUnknownMagic, magic[:4])
	}
}

func parseELF(r io.ReaderAt) (elfmeta.Object, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF: %w", err)
	}
	defer func() { _ = f.Close() }()

	md, err := elfmeta.FromELF(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read ELF metadata: %w", err)
	}
	return &elfmeta.ELF{Metadata: md}, nil
}

func isMachO(magic []byte) bool {
	for _, m := range []uint32{binary.BigEndian.Uint32(magic), binary.LittleEndian.Uint32(magic)} {
		if m == machoMagic32 || m == machoMagic64 {
			return true
		}
	}
	return false
}

func parseMachO(r io.ReaderAt) (elfmeta.Object, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Mach-O: %w", err)
	}
	defer func() { _ = f.Close() }()

	return &elfmeta.Unsupported{
		Format: elfmeta.KindMachO,
		Detail: fmt.Sprintf("cpu=%v type=%v", f.CPU, f.Type),
	}, nil
}

func parseFat(magic []byte) (elfmeta.Object, error) {
	if len(magic) < magicLen {
		return nil, errTooShort
	}
	narch := binary.BigEndian.Uint32(magic[4:])
	if narch == 0 || narch > maxFatArches {
		return nil, fmt.Errorf("%w: 0xcafebabe with %d entries", errUnknownMagic, narch)
	}
	return &elfmeta.Unsupported{
		Format: elfmeta.KindMachOUniversal,
		Detail: fmt.Sprintf("arches=%d", narch),
	}, nil
}

var peMachines = map[uint16]string{
	pe.IMAGE_FILE_MACHINE_I386:  "i386",
	pe.IMAGE_FILE_MACHINE_AMD64: "amd64",
	pe.IMAGE_FILE_MACHINE_ARMNT: "arm",
	pe.IMAGE_FILE_MACHINE_ARM64: "arm64",
}

func parsePE(r io.ReaderAt) (elfmeta.Object, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PE: %w", err)
	}
	defer func() { _ = f.Close() }()

	machine, ok := peMachines[f.Machine]
	if !ok {
		machine = fmt.Sprintf("%#04x", f.Machine)
	}
	return &elfmeta.Unsupported{
		Format: elfmeta.KindPE,
		Detail: "machine=" + machine,
	}, nil
}
