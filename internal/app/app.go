// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-local/internal/dao"
	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/service"
	"github.com/haierkeys/fast-note-local/pkg/metrics"
	"github.com/haierkeys/fast-note-local/pkg/timex"
	"github.com/haierkeys/fast-note-local/pkg/writequeue"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is built once at process start and handed to every consumer
// App 应用容器，进程启动时构建一次
type App struct {
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	writeQueueMgr *writequeue.Manager
	registry      *prometheus.Registry
	metrics       *metrics.Metrics

	NoteRepo       domain.NoteRepository
	PreferenceRepo domain.PreferenceRepository

	PreferenceService service.PreferenceService
	NotesService      service.NotesService
	SessionService    service.SessionService

	closeOnce sync.Once
	closeErr  error
}

// NewApp 创建应用容器
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:   cfg,
		logger:   logger,
		DB:       db,
		registry: prometheus.NewRegistry(),
	}
	a.metrics = metrics.New(a.registry)

	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = newWriteQueue(&wqConfig, logger)

	dbConfig := cfg.GetDatabaseConfig()
	a.Dao = dao.New(db,
		dao.WithLogger(logger),
		dao.WithWriteQueueManager(a.writeQueueMgr),
		dao.WithMetrics(a.metrics),
	)

	clock := timex.NewMonotonicClock()

	noteDao, err := dao.NewNoteDao(a.Dao)
	if err != nil {
		a.stopWriteQueue()
		return nil, errors.Wrap(err, "init note store failed")
	}
	a.NoteRepo = dao.NewNoteRepository(noteDao, dao.WithClock(clock))

	a.PreferenceRepo, err = dao.NewPreferenceRepository(a.Dao, clock)
	if err != nil {
		a.stopWriteQueue()
		return nil, errors.Wrap(err, "init preference store failed")
	}

	a.PreferenceService = service.NewPreferenceService(a.PreferenceRepo, logger)
	a.NotesService = service.NewNotesService(a.NoteRepo, a.PreferenceService, cfg.GetServiceConfig(), logger, a.metrics)
	a.SessionService = service.NewSessionService(a.PreferenceService, logger)

	logger.Info("App container initialized successfully",
		zap.String("database", dbConfig.Type),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity),
		zap.Duration("keepWarm", cfg.GetKeepWarm()))

	return a, nil
}

// newWriteQueue is swapped in tests
var newWriteQueue = writequeue.New

// stopWriteQueue releases the write queue of a container that failed to build
func (a *App) stopWriteQueue() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
		a.logger.Warn("write queue shutdown failed", zap.Error(err))
	}
}

// OpenApp opens the configured database and builds the container around it
// OpenApp 打开数据库并创建应用容器
func OpenApp(cfg *AppConfig, logger *zap.Logger) (*App, error) {
	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), logger)
	if err != nil {
		return nil, err
	}
	a, err := NewApp(cfg, logger, db)
	if err != nil {
		if sqlDB, e := db.DB(); e == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return a, nil
}

// Close 关闭数据库连接
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

func (a *App) Config() *AppConfig {
	return a.config
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Registry 返回本容器的 Prometheus 注册表
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// WriteQueueManager 获取写队列管理器
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Notes Service -> Write Queue Manager -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.closeErr = a.shutdown(ctx)
	})
	return a.closeErr
}

func (a *App) shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	var errs []error

	// 1. 停止热流，之后的修改返回 false
	if a.NotesService != nil {
		a.NotesService.Close()
	}

	// 2. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		}
	}

	// 3. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}
