// Package domain 定义领域模型和接口
package domain

import "context"

// NoteRepository 笔记仓储接口
// NoteRepository is the only gateway to persisted notes. Observe* streams emit the current
// snapshot first and again after every change; they close when ctx is cancelled.
type NoteRepository interface {
	// ObserveAll all notes, newest updatedAt first
	ObserveAll(ctx context.Context) <-chan []Note

	// ObserveFavorites favorite notes, newest updatedAt first
	ObserveFavorites(ctx context.Context) <-chan []Note

	// ObserveByID the note or nil when absent
	ObserveByID(ctx context.Context, id string) <-chan *Note

	// GetByID one-shot read, ErrNoteNotFound when absent
	GetByID(ctx context.Context, id string) (*Note, error)

	// AddNote creates a note with a fresh id and createdAt = updatedAt = now
	AddNote(ctx context.Context, title, body, author string, isFavorite bool) (*Note, error)

	// UpdateNote replaces title and body and stamps updatedAt; missing id is a no-op
	UpdateNote(ctx context.Context, id, title, body string) error

	// ToggleFavorite flips isFavorite atomically without touching updatedAt; missing id is a no-op
	ToggleFavorite(ctx context.Context, id string) error

	// DeleteNote removes the note; missing id is a no-op
	DeleteNote(ctx context.Context, id string) error
}

// PreferenceRepository 偏好设置仓储接口
// PreferenceRepository stores raw preference strings by key
type PreferenceRepository interface {
	// Get returns the raw value; Present is false when the key was never set
	Get(ctx context.Context, key PreferenceKey) (PreferenceValue, error)

	// Set writes the raw value
	Set(ctx context.Context, key PreferenceKey, raw string) error

	// Observe streams the raw value of key
	Observe(ctx context.Context, key PreferenceKey) <-chan PreferenceValue
}
