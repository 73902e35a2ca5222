package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the path turned into a symbolic link after it was resolved.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrNotRegularFile indicates the path is a directory, device, FIFO or socket.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrFileTooLarge indicates that the file is too large.
	ErrFileTooLarge = errors.New("file too large")
)
