package cmd

import (
	"context"
	"fmt"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"
	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/service"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	loginCmd := &cobra.Command{
		Use:   "login <display name>",
		Short: "Set the display name used as note author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if v := service.ValidateUserName(args[0]); !v.Valid() {
				switch {
				case !v.LengthOK:
					return errors.Wrapf(domain.ErrInvalidUserName, "must be %d to %d characters, got %d",
						service.UserNameMinLength, service.UserNameMaxLength, v.Length)
				default:
					return errors.Wrap(domain.ErrInvalidUserName, "only letters, digits, spaces, '_' and '-' are allowed")
				}
			}
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				a.SessionService.SetDraft(args[0])
				return ok(a.SessionService.Commit(ctx))
			})
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				return ok(a.SessionService.Logout(ctx))
			})
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				p, err := a.PreferenceService.Snapshot(ctx)
				if err != nil {
					return err
				}
				name := p.UserName
				if name == "" {
					name = a.Config().Store.DefaultAuthor + " (not logged in)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
