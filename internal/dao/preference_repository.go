package dao

import (
	"context"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/model"
	"github.com/haierkeys/fast-note-local/pkg/logger"
	"github.com/haierkeys/fast-note-local/pkg/stream"
	"github.com/haierkeys/fast-note-local/pkg/timex"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const preferenceWriteKey = "preference"

// preferenceRepository 实现 domain.PreferenceRepository 接口
type preferenceRepository struct {
	dao     *Dao
	clock   timex.Clock
	changes *stream.Notifier
}

// NewPreferenceRepository 创建 PreferenceRepository 实例，并确保表已迁移
func NewPreferenceRepository(d *Dao, clock timex.Clock) (domain.PreferenceRepository, error) {
	if _, err := d.UseWithOnceFunc("#preference", func(g *gorm.DB) error {
		return model.AutoMigrate(g, "Preference")
	}); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timex.NewMonotonicClock()
	}
	return &preferenceRepository{dao: d, clock: clock, changes: stream.NewNotifier()}, nil
}

func (r *preferenceRepository) Get(ctx context.Context, key domain.PreferenceKey) (domain.PreferenceValue, error) {
	var rows []*model.Preference
	err := r.dao.Db.WithContext(ctx).
		Where("name = ?", string(key)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return domain.PreferenceValue{}, errors.Wrapf(err, "read preference %s failed", key)
	}
	if len(rows) == 0 {
		return domain.PreferenceValue{}, nil
	}
	return domain.PreferenceValue{Raw: rows[0].Value, Present: true}, nil
}

// Set upserts the raw value
// Set 写入偏好值（存在则覆盖）
func (r *preferenceRepository) Set(ctx context.Context, key domain.PreferenceKey, raw string) error {
	row := &model.Preference{
		Name:      string(key),
		Value:     raw,
		UpdatedAt: r.clock.NowMilli(),
	}
	err := r.dao.Write(ctx, preferenceWriteKey, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(row).Error
	})
	if err != nil {
		return errors.Wrapf(err, "write preference %s failed", key)
	}
	r.dao.logger.Debug("preference changed", zap.String(logger.FieldKey, string(key)))
	r.changes.Notify()
	return nil
}

func (r *preferenceRepository) Observe(ctx context.Context, key domain.PreferenceKey) <-chan domain.PreferenceValue {
	q := stream.NewQuery("preference."+string(key), r.changes,
		func(ctx context.Context) (domain.PreferenceValue, error) {
			return r.Get(ctx, key)
		},
		stream.WithEqual(func(a, b domain.PreferenceValue) bool { return a == b }),
		stream.WithLogger[domain.PreferenceValue](r.dao.logger),
		stream.WithFetchHook[domain.PreferenceValue](r.dao.requeryHook()))
	return q.Observe(ctx)
}

// 确保 preferenceRepository 实现了 domain.PreferenceRepository 接口
var _ domain.PreferenceRepository = (*preferenceRepository)(nil)
