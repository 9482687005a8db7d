package cmd

import (
	"fmt"
	"path/filepath"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"

	"github.com/gookit/goutil/fsutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var force bool
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with every default (default config/config.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config/config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if fsutil.PathExists(path) && !force {
				return errors.Errorf("%s already exists, use --force to overwrite", path)
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			cfg := internalApp.DefaultConfig()
			cfg.File = abs
			if err := cfg.Save(); err != nil {
				return err
			}
			bootstrapLogger.Info("config file created", zap.String("path", abs))
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}
