// Package domain 定义领域模型和接口
// Package domain defines the note entity, preferences and repository contracts
package domain

import (
	"time"

	"github.com/haierkeys/fast-note-local/pkg/timex"
)

// DefaultAuthor is used when no display name is set
// DefaultAuthor 未设置用户名时使用的作者名
const DefaultAuthor = "guest"

// Note 笔记领域模型
// Note is a value type; copies are independent. Timestamps are epoch milliseconds.
type Note struct {
	ID         string
	Title      string
	Body       string
	Author     string
	CreatedAt  int64
	UpdatedAt  int64
	IsFavorite bool
}

// Created returns CreatedAt as time.Time in loc (nil means Local)
func (n Note) Created(loc *time.Location) time.Time {
	return timex.FromMilli(n.CreatedAt, loc)
}

// Updated returns UpdatedAt as time.Time in loc (nil means Local)
func (n Note) Updated(loc *time.Location) time.Time {
	return timex.FromMilli(n.UpdatedAt, loc)
}

// EqualNotes reports whether two snapshots hold the same notes in the same order
// EqualNotes 判断两个快照是否相同
func EqualNotes(a, b []Note) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EqualNotePtr compares two optional notes by value
func EqualNotePtr(a, b *Note) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
