// Package safefileio provides scoped, read-only file acquisition for binaries under
// analysis: paths are resolved to a concrete regular file, opened without following
// a late-swapped symlink, size-checked, and handed out as an io.ReaderAt.
package safefileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// DefaultMaxFileSize is the default maximum size of a file opened for analysis (1 GB).
const DefaultMaxFileSize = 1 << 30

// File is an open, read-only file.
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
	Name() string
}

// FileSystem abstracts read-only file acquisition.
type FileSystem interface {
	// SafeOpenFile opens path for reading. The caller must Close the returned File.
	SafeOpenFile(path string) (File, error)
}

// FileSystemConfig configures the default FileSystem.
type FileSystemConfig struct {
	// MaxFileSize limits the size of opened files. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

type osFS struct {
	maxFileSize int64
}

// NewFileSystem returns the default FileSystem backed by the local disk.
func NewFileSystem(cfg FileSystemConfig) FileSystem {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return &osFS{maxFileSize: cfg.MaxFileSize}
}

// SafeOpenFile resolves symlinks in path, then opens the resolved path with
// O_NOFOLLOW so a symlink swapped in after resolution is rejected. The file must be
// a regular file no larger than the configured limit. On any error no file is left open.
func (fs *osFS) SafeOpenFile(path string) (File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, err
	}

	// #nosec G304 - resolved is a cleaned absolute path and O_NOFOLLOW is set
	file, err := os.OpenFile(resolved, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
	if err != nil {
		if isNoFollowError(err) {
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, resolved)
		}
		return nil, err
	}

	if err := validateFile(file, resolved, fs.maxFileSize); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// validateFile checks through the open descriptor that the file is a regular
// file within the size limit.
func validateFile(file File, path string, maxSize int64) error {
	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("%w: %s (%s)", ErrNotRegularFile, path, fileInfo.Mode().Type())
	}

	if fileInfo.Size() > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, fileInfo.Size(), maxSize)
	}

	return nil
}

// isNoFollowError reports whether err is how the kernel rejects O_NOFOLLOW on a
// symlink: ELOOP on Linux, EMLINK on FreeBSD.
func isNoFollowError(err error) bool {
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	return errors.Is(pathErr.Err, syscall.ELOOP) || errors.Is(pathErr.Err, syscall.EMLINK)
}

// IsNotExist reports whether err indicates the file or a path component does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
