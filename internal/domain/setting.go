// Package domain 定义领域模型和接口
package domain

// PreferenceKey persisted preference key
// PreferenceKey 持久化的偏好设置键
type PreferenceKey string

const (
	PrefUserName     PreferenceKey = "user_name"
	PrefDarkMode     PreferenceKey = "dark_mode"
	PrefWelcomeShown PreferenceKey = "welcome_shown"
	PrefSortBy       PreferenceKey = "sort_by"
)

// SortBy note list ordering
// SortBy 笔记列表排序方式
type SortBy int

const (
	// SortByDate newest updatedAt first
	SortByDate SortBy = iota
	// SortByTitle case-insensitive title, ascending
	SortByTitle
	// SortByFavoriteThenDate favorites first, each group newest first
	SortByFavoriteThenDate
)

// String returns the stored representation
func (s SortBy) String() string {
	switch s {
	case SortByTitle:
		return "TITLE"
	case SortByFavoriteThenDate:
		return "FAVORITE"
	default:
		return "DATE"
	}
}

// ParseSortBy parses a stored value; unknown input reports ok=false
// ParseSortBy 解析存储值，无法识别时 ok 为 false
func ParseSortBy(raw string) (SortBy, bool) {
	switch raw {
	case "DATE":
		return SortByDate, true
	case "TITLE":
		return SortByTitle, true
	case "FAVORITE":
		return SortByFavoriteThenDate, true
	}
	return SortByDate, false
}

// Preferences a point-in-time read of every user preference
// Preferences 用户偏好设置快照
type Preferences struct {
	UserName     string
	DarkMode     bool
	WelcomeShown bool
	SortBy       SortBy
}

// PreferenceValue raw stored value of one key; Present is false when the key is absent
type PreferenceValue struct {
	Raw     string
	Present bool
}
