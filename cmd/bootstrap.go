package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger logs config discovery and setup before the configured logger exists
// bootstrapLogger 启动阶段日志器，在加载配置之前使用
var (
	bootstrapLogger *zap.Logger
	bootstrapLevel  = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

func init() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if os.Getenv("FAST_NOTE_DEBUG") != "" {
		bootstrapLevel.SetLevel(zapcore.DebugLevel)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), bootstrapLevel)
	bootstrapLogger = zap.New(core, zap.AddCaller())
}

// setVerbose lowers the bootstrap level to debug
func setVerbose(on bool) {
	if on {
		bootstrapLevel.SetLevel(zapcore.DebugLevel)
	}
}
