// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/fast-note-local/internal/dao"
	"github.com/haierkeys/fast-note-local/internal/service"
	"github.com/haierkeys/fast-note-local/pkg/logger"
	"github.com/haierkeys/fast-note-local/pkg/util"
	"github.com/haierkeys/fast-note-local/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/gookit/goutil/fsutil"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时输出到 stderr
	File string `yaml:"file"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型 sqlite, mysql, postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/notes.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// Charset 字符集
	Charset string `yaml:"charset"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// Debug 输出 SQL 日志
	Debug bool `yaml:"debug"`
	// Tracing 启用 OpenTracing 插件
	Tracing bool `yaml:"tracing"`
}

// StoreConfig 笔记存储配置
type StoreConfig struct {
	// KeepWarm 最后一个订阅者离开后热流保持时间，默认 5s
	KeepWarm string `yaml:"keep-warm" default:"5s"`
	// WriteQueueCapacity 每张表写队列容量，默认 100
	WriteQueueCapacity int `yaml:"write-queue-capacity" default:"100"`
	// WriteTimeout 单次写操作超时，默认 30s
	WriteTimeout string `yaml:"write-timeout" default:"30s"`
	// WriteIdleTime 空闲写队列回收时间，默认 10m
	WriteIdleTime string `yaml:"write-idle-time" default:"10m"`
	// DefaultAuthor 未设置用户名时的作者名
	DefaultAuthor string `yaml:"default-author" default:"guest"`
}

// DefaultConfig returns a config with every default applied
// DefaultConfig 返回全部使用默认值的配置
func DefaultConfig() *AppConfig {
	c := new(AppConfig)
	// defaults.Set only fails on malformed tags
	if err := defaults.Set(c); err != nil {
		panic(err)
	}
	return c
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	if err := fsutil.MkParentDir(c.File); err != nil {
		return errors.Wrap(err, "create config directory failed")
	}
	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetDatabaseConfig 获取 dao 层数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Name:            c.Database.Name,
		TablePrefix:     c.Database.TablePrefix,
		Charset:         c.Database.Charset,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		Debug:           c.Database.Debug,
		Tracing:         c.Database.Tracing,
	}
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.Store.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.Store.WriteQueueCapacity
	}
	cfg.WriteTimeout = util.ParseDurationOr(c.Store.WriteTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.ParseDurationOr(c.Store.WriteIdleTime, cfg.IdleTimeout)

	return cfg
}

// GetServiceConfig 获取服务层配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	return &service.ServiceConfig{
		KeepWarm:      c.GetKeepWarm(),
		DefaultAuthor: c.Store.DefaultAuthor,
	}
}

// GetKeepWarm 获取热流保持时间
func (c *AppConfig) GetKeepWarm() time.Duration {
	return util.ParseDurationOr(c.Store.KeepWarm, 5*time.Second)
}
