package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"
	"github.com/haierkeys/fast-note-local/pkg/logger"

	"github.com/gookit/goutil/fsutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	dir     string // Working directory // 工作目录
	config  string // Specified configuration file path // 指定要使用的配置文件路径
	verbose bool   // Debug output during startup // 启动阶段输出调试日志
}

var rootEnv = new(rootFlags)

var rootCmd = &cobra.Command{
	Use:           "fast-note",
	Short:         "Fast Note, a local notes store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setVerbose(rootEnv.verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpTemplate()
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootEnv.dir, "dir", "d", "", "working directory")
	rootCmd.PersistentFlags().StringVarP(&rootEnv.config, "config", "c", "", "config file (default config/config.yaml or config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&rootEnv.verbose, "verbose", "v", false, "log startup details")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file; without one every default applies
// loadConfig 查找配置文件，不存在时使用默认配置
func loadConfig() (*internalApp.AppConfig, error) {
	if rootEnv.dir != "" {
		if err := os.Chdir(rootEnv.dir); err != nil {
			return nil, err
		}
		bootstrapLogger.Debug("working directory changed", zap.String("dir", rootEnv.dir))
	}

	path := rootEnv.config
	if path == "" {
		for _, p := range []string{"config/config.yaml", "config.yaml"} {
			if fsutil.IsFile(p) {
				path = p
				break
			}
		}
	}
	if path == "" {
		bootstrapLogger.Debug("config file not found, using defaults")
		return internalApp.DefaultConfig(), nil
	}

	cfg, realpath, err := internalApp.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	bootstrapLogger.Debug("config loaded", zap.String("path", realpath))
	return cfg, nil
}

// withApp builds the container, runs fn and shuts everything down. ctx is cancelled
// on SIGINT or SIGTERM.
// withApp 构建应用容器并执行 fn，结束后优雅关闭
func withApp(fn func(ctx context.Context, a *internalApp.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lg, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		return err
	}
	defer lg.Sync()

	a, err := internalApp.OpenApp(cfg, lg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := fn(ctx, a)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		lg.Warn("shutdown failed", zap.Error(err))
	}
	return runErr
}
