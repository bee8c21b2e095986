package services

import "errors"

var (
	// ErrFolderNotFound is returned when a folder id does not resolve under the caller.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrFileNotFound is returned when a file id does not resolve under the caller.
	ErrFileNotFound = errors.New("file not found")
	// ErrNameRequired is returned when a create or rename carries an empty name.
	ErrNameRequired = errors.New("name is required")
	// ErrNameInvalid is returned for names that are too long or carry bytes a
	// stored name cannot hold.
	ErrNameInvalid = errors.New("invalid name")
	// ErrNothingToUpdate is returned when an update names no fields.
	ErrNothingToUpdate = errors.New("no fields to update")
)
