package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"
	"github.com/haierkeys/fast-note-local/internal/domain"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				p, err := a.PreferenceService.Snapshot(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s=%s\n", domain.PrefUserName, p.UserName)
				fmt.Fprintf(w, "%s=%t\n", domain.PrefDarkMode, p.DarkMode)
				fmt.Fprintf(w, "%s=%t\n", domain.PrefWelcomeShown, p.WelcomeShown)
				fmt.Fprintf(w, "%s=%s\n", domain.PrefSortBy, p.SortBy)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <dark_mode|welcome_shown|sort_by> <value>",
		Short: "Change a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := domain.PreferenceKey(args[0]), args[1]
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				switch key {
				case domain.PrefDarkMode, domain.PrefWelcomeShown:
					on, err := strconv.ParseBool(raw)
					if err != nil {
						return errors.Wrapf(err, "%s expects true or false", key)
					}
					if key == domain.PrefDarkMode {
						return a.PreferenceService.SetDarkMode(ctx, on)
					}
					return a.PreferenceService.SetWelcomeShown(ctx, on)
				case domain.PrefSortBy:
					sortBy, valid := domain.ParseSortBy(strings.ToUpper(raw))
					if !valid {
						return errors.Errorf("unknown sort %q, want DATE, TITLE or FAVORITE", raw)
					}
					return a.PreferenceService.SetSortBy(ctx, sortBy)
				case domain.PrefUserName:
					return errors.New("use the login command to set the display name")
				}
				return errors.Errorf("unknown preference %q", key)
			})
		},
	}

	prefsCmd.AddCommand(setCmd)
	rootCmd.AddCommand(prefsCmd)
}
