// Package logger builds the process zap logger
// Package logger 构建进程级 zap 日志器
package logger

import (
	"os"

	"github.com/gookit/goutil/fsutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config logger configuration
// Config 日志配置
type Config struct {
	// Level see zapcore.ParseLevel, empty means info
	Level string
	// File log file path, empty means stderr
	File string
	// Production enables the JSON encoder
	Production bool
}

// NewLogger creates a zap logger from cfg
// NewLogger 根据配置创建 zap 日志器
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
		level = l
	}

	var encoder zapcore.Encoder
	if cfg.Production {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer := zapcore.Lock(os.Stderr)
	if cfg.File != "" {
		if err := fsutil.MkParentDir(cfg.File); err != nil {
			return nil, errors.Wrap(err, "create log directory failed")
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file failed")
		}
		writer = zapcore.Lock(f)
	}

	core := zapcore.NewCore(encoder, writer, level)
	return zap.New(core, zap.AddCaller()), nil
}
