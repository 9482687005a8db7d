// Package dao 实现数据访问层
// Package dao implements persistence for notes and preferences on gorm
package dao

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-local/pkg/metrics"
	"github.com/haierkeys/fast-note-local/pkg/util"
	"github.com/haierkeys/fast-note-local/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/gookit/goutil/fsutil"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite, mysql or postgres
	Type string
	// Path SQLite file path or DSN
	Path string
	// UserName 用户名
	UserName string
	// Password 密码
	Password string
	// Host host[:port]
	Host string
	// Name 数据库名
	Name string
	// TablePrefix prepended to every table name
	TablePrefix string
	// Charset MySQL charset, default utf8mb4
	Charset string
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int
	// ConnMaxLifetime e.g. 30m
	ConnMaxLifetime string
	// Debug logs every SQL statement
	Debug bool
	// Tracing enables the OpenTracing gorm plugin
	Tracing bool
}

// Dao shared database handle with serialized writes
// Dao 数据访问对象，写操作经写队列串行化
type Dao struct {
	Db         *gorm.DB
	logger     *zap.Logger
	writeQueue *writequeue.Manager
	metrics    *metrics.Metrics

	onceKeys sync.Map // map[string]*onceResult
}

type onceResult struct {
	once sync.Once
	err  error
}

// DaoOption Dao 配置选项
type DaoOption func(*Dao)

// WithLogger 设置日志器
func WithLogger(lg *zap.Logger) DaoOption {
	return func(d *Dao) {
		if lg != nil {
			d.logger = lg
		}
	}
}

// WithWriteQueueManager 设置写队列管理器
func WithWriteQueueManager(m *writequeue.Manager) DaoOption {
	return func(d *Dao) { d.writeQueue = m }
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Metrics) DaoOption {
	return func(d *Dao) { d.metrics = m }
}

// New 创建 Dao 实例
func New(db *gorm.DB, opts ...DaoOption) *Dao {
	d := &Dao{
		Db:     db,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// UseWithOnceFunc returns the handle after running fn once for key, e.g. a migration
// UseWithOnceFunc 对同一 key 只执行一次 fn（如表迁移）后返回数据库句柄
func (d *Dao) UseWithOnceFunc(key string, fn func(g *gorm.DB) error) (*gorm.DB, error) {
	v, _ := d.onceKeys.LoadOrStore(key, &onceResult{})
	r := v.(*onceResult)
	r.once.Do(func() {
		r.err = fn(d.Db)
	})
	if r.err != nil {
		return nil, errors.Wrapf(r.err, "init %s failed", key)
	}
	return d.Db, nil
}

// Write runs fn in a transaction on the write queue for key
// Write 在 key 对应的写队列中以事务方式执行 fn
func (d *Dao) Write(ctx context.Context, key string, fn func(tx *gorm.DB) error) error {
	run := func(ctx context.Context) error {
		return d.Db.WithContext(ctx).Transaction(fn)
	}
	if d.writeQueue == nil {
		return run(ctx)
	}
	return d.writeQueue.Execute(ctx, key, run)
}

// Logger 获取日志器
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

func (d *Dao) requeryHook() func(string) {
	return d.metrics.Requery
}

// NewDBEngineWithConfig opens the database described by c
// NewDBEngineWithConfig 根据配置创建数据库连接
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	if lg == nil {
		lg = zap.NewNop()
	}

	dialector, err := useDialector(c)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if c.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database failed")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB failed")
	}

	if isMemorySQLite(c) {
		// one connection keeps the in-memory database alive and consistent
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		if c.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		}
		if c.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		}
		sqlDB.SetConnMaxLifetime(util.ParseDurationOr(c.ConnMaxLifetime, 30*time.Minute))
	}

	if c.Tracing {
		if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil {
			lg.Warn("gorm tracing plugin not installed", zap.Error(err))
		}
	}

	lg.Info("database opened", zap.String("type", dbType(c)))
	return db, nil
}

func dbType(c DatabaseConfig) string {
	if c.Type == "" {
		return "sqlite"
	}
	return c.Type
}

func isMemorySQLite(c DatabaseConfig) bool {
	return dbType(c) == "sqlite" && (strings.Contains(c.Path, ":memory:") || strings.Contains(c.Path, "mode=memory"))
}

func useDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch dbType(c) {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			charset,
		)), nil
	case "postgres":
		host, port := c.Host, "5432"
		if h, p, err := net.SplitHostPort(c.Host); err == nil {
			host, port = h, p
		}
		return postgres.Open(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host,
			port,
			c.UserName,
			c.Password,
			c.Name,
		)), nil
	case "sqlite":
		if c.Path == "" {
			return nil, errors.New("sqlite path is required")
		}
		if isMemorySQLite(c) {
			return sqlite.Open(c.Path), nil
		}
		if err := fsutil.MkParentDir(c.Path); err != nil {
			return nil, errors.Wrap(err, "create database directory failed")
		}
		dsn := c.Path
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}
