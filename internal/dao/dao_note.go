package dao

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/model"
	"github.com/haierkeys/fast-note-local/pkg/logger"
	"github.com/haierkeys/fast-note-local/pkg/stream"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const noteWriteKey = "note"

// NoteDao note table query surface
// NoteDao 笔记表查询接口
// Every successful write notifies the change stream; Get* streams re-query the full
// result set on each change.
type NoteDao struct {
	dao       *Dao
	changes   *stream.Notifier
	all       *stream.Query[[]*model.Note]
	favorites *stream.Query[[]*model.Note]
}

// NewNoteDao 创建 NoteDao，并确保表已迁移
func NewNoteDao(d *Dao) (*NoteDao, error) {
	if _, err := d.UseWithOnceFunc("#note", func(g *gorm.DB) error {
		return model.AutoMigrate(g, "Note")
	}); err != nil {
		return nil, err
	}

	n := &NoteDao{dao: d, changes: stream.NewNotifier()}
	n.all = stream.NewQuery("notes.all", n.changes, n.FindAll,
		stream.WithLogger[[]*model.Note](d.logger),
		stream.WithFetchHook[[]*model.Note](d.requeryHook()))
	n.favorites = stream.NewQuery("notes.favorites", n.changes, n.FindFavorites,
		stream.WithLogger[[]*model.Note](d.logger),
		stream.WithFetchHook[[]*model.Note](d.requeryHook()))
	return n, nil
}

func (n *NoteDao) note(ctx context.Context) *gorm.DB {
	return n.dao.Db.WithContext(ctx).Model(&model.Note{})
}

// GetAll 所有笔记，按 updated_at 倒序
func (n *NoteDao) GetAll(ctx context.Context) <-chan []*model.Note {
	return n.all.Observe(ctx)
}

// GetFavorites 收藏笔记，按 updated_at 倒序
func (n *NoteDao) GetFavorites(ctx context.Context) <-chan []*model.Note {
	return n.favorites.Observe(ctx)
}

// GetByID emits the row or nil when absent
// GetByID 按 ID 订阅笔记，不存在时为 nil
func (n *NoteDao) GetByID(ctx context.Context, id string) <-chan *model.Note {
	q := stream.NewQuery("notes.byId", n.changes, func(ctx context.Context) (*model.Note, error) {
		return n.FindByID(ctx, id)
	}, stream.WithLogger[*model.Note](n.dao.logger), stream.WithFetchHook[*model.Note](n.dao.requeryHook()))
	return q.Observe(ctx)
}

// FindAll 一次性读取所有笔记
func (n *NoteDao) FindAll(ctx context.Context) ([]*model.Note, error) {
	var rows []*model.Note
	if err := n.note(ctx).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query notes failed")
	}
	return rows, nil
}

// FindFavorites 一次性读取收藏笔记
func (n *NoteDao) FindFavorites(ctx context.Context) ([]*model.Note, error) {
	var rows []*model.Note
	if err := n.note(ctx).Where("is_favorite = ?", true).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query favorite notes failed")
	}
	return rows, nil
}

// FindByID returns nil, nil when the id is absent
// FindByID 不存在时返回 nil, nil
func (n *NoteDao) FindByID(ctx context.Context, id string) (*model.Note, error) {
	var rows []*model.Note
	if err := n.note(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query note failed")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Insert fails with domain.ErrDuplicateID when the id exists
// Insert 插入笔记，ID 已存在时返回 domain.ErrDuplicateID，不覆盖
func (n *NoteDao) Insert(ctx context.Context, row *model.Note) error {
	err := n.dao.Write(ctx, noteWriteKey, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Note{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check note id failed")
		}
		if count > 0 {
			return domain.ErrDuplicateID
		}
		if err := tx.Create(row).Error; err != nil {
			if isDuplicateKey(err) {
				return domain.ErrDuplicateID
			}
			return errors.Wrap(err, "insert note failed")
		}
		return nil
	})
	if err != nil {
		return err
	}
	n.changed("insert", row.ID)
	return nil
}

// Update replaces every column of the row by id; reports false when the id is absent
// Update 按 ID 整行替换，ID 不存在时返回 false
func (n *NoteDao) Update(ctx context.Context, row *model.Note) (bool, error) {
	var affected int64
	err := n.dao.Write(ctx, noteWriteKey, func(tx *gorm.DB) error {
		res := tx.Model(&model.Note{}).Where("id = ?", row.ID).Updates(map[string]any{
			"title":       row.Title,
			"body":        row.Body,
			"author":      row.Author,
			"created_at":  row.CreatedAt,
			"updated_at":  row.UpdatedAt,
			"is_favorite": row.IsFavorite,
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update note failed")
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	if affected > 0 {
		n.changed("update", row.ID)
	}
	return affected > 0, nil
}

// DeleteByID reports false when the id is absent
// DeleteByID 删除笔记，ID 不存在时返回 false
func (n *NoteDao) DeleteByID(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := n.dao.Write(ctx, noteWriteKey, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Note{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete note failed")
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	if affected > 0 {
		n.changed("delete", id)
	}
	return affected > 0, nil
}

// ToggleFavorite flips is_favorite in a single UPDATE so concurrent toggles never
// read a stale value; updated_at is left untouched
// ToggleFavorite 在数据库层原子翻转收藏标记，不修改 updated_at
func (n *NoteDao) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := n.dao.Write(ctx, noteWriteKey, func(tx *gorm.DB) error {
		res := tx.Model(&model.Note{}).Where("id = ?", id).
			UpdateColumn("is_favorite", gorm.Expr("NOT is_favorite"))
		if res.Error != nil {
			return errors.Wrap(res.Error, "toggle favorite failed")
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	if affected > 0 {
		n.changed("toggleFavorite", id)
	}
	return affected > 0, nil
}

func (n *NoteDao) changed(action, id string) {
	n.dao.logger.Debug("note table changed",
		zap.String(logger.FieldAction, action),
		zap.String(logger.FieldNoteID, id))
	n.changes.Notify()
}

func isDuplicateKey(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
