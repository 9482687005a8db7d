package domain

import "errors"

var (
	// ErrNoteNotFound the note id is not in the store
	ErrNoteNotFound = errors.New("note not found")
	// ErrDuplicateID an insert hit an existing primary key
	ErrDuplicateID = errors.New("duplicate note id")
	// ErrInvalidUserName the display name failed validation
	ErrInvalidUserName = errors.New("invalid user name")
	// ErrStoreClosed the store was used after App.Close
	ErrStoreClosed = errors.New("store closed")
)
