package workspace

import (
	"errors"
	"fmt"
)

// Sentinel errors for the workspace package.
var (
	// ErrFolderNotFound is returned when the workspace folder does not exist.
	ErrFolderNotFound = errors.New("ralph folder not found")

	// ErrAlreadyInitialized is returned by Init when the folder already exists.
	ErrAlreadyInitialized = errors.New("workspace already initialized")
)

// FolderNotFoundError carries the folder that was looked up.
type FolderNotFoundError struct {
	Folder string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("Ralph folder not found: %s", e.Folder)
}

func (e *FolderNotFoundError) Unwrap() error { return ErrFolderNotFound }

// MissingFileError reports a required workspace file that is absent.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("Missing file: %s", e.Path)
}
