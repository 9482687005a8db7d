package logger

// Shared log field names, keep them stable for log queries
// 统一的日志字段命名常量
const (
	// FieldNoteID note id
	FieldNoteID = "noteId"

	// FieldAction mutation name (add, update, toggleFavorite, delete)
	FieldAction = "action"

	// FieldKey preference key
	FieldKey = "key"

	// FieldQuery reactive query name
	FieldQuery = "query"

	// FieldObservers attached observer count
	FieldObservers = "observers"

	// FieldDuration elapsed time
	FieldDuration = "duration"

	// FieldQueue write queue key
	FieldQueue = "queue"
)
