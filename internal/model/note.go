package model

// Note persisted note row
// Note 笔记表结构
// Body is NULL when the note has no body. Timestamps are epoch milliseconds and are
// written explicitly, never by gorm's auto time tracking.
type Note struct {
	ID         string  `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Title      string  `gorm:"column:title;type:text;not null" json:"title"`
	Body       *string `gorm:"column:body;type:text" json:"body"`
	Author     string  `gorm:"column:author;type:varchar(255);not null;default:''" json:"author"`
	CreatedAt  int64   `gorm:"column:created_at;not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt  int64   `gorm:"column:updated_at;not null;index:idx_note_updated_at;autoUpdateTime:false" json:"updatedAt"`
	IsFavorite bool    `gorm:"column:is_favorite;not null;default:false;index:idx_note_is_favorite" json:"isFavorite"`
}
