package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"
	"github.com/haierkeys/fast-note-local/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// lockedWriter serializes output from the watch goroutines
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// watchHome prints the home projection and the preferences until ctx is cancelled
func watchHome(ctx context.Context, a *internalApp.App, w io.Writer, favoritesOnly bool) error {
	out := &lockedWriter{w: w}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for notes := range a.NotesService.ObserveHome(ctx, favoritesOnly) {
			fmt.Fprintf(out, "-- %d note(s)\n", len(notes))
			printNotes(out, notes)
		}
		return nil
	})
	g.Go(func() error {
		for dark := range a.PreferenceService.DarkMode(ctx) {
			fmt.Fprintf(out, "-- %s=%t\n", domain.PrefDarkMode, dark)
		}
		return nil
	})
	g.Go(func() error {
		for name := range a.PreferenceService.UserName(ctx) {
			fmt.Fprintf(out, "-- %s=%s\n", domain.PrefUserName, name)
		}
		return nil
	})

	err := g.Wait()
	a.Logger().Debug("watch stopped", zap.Error(ctx.Err()))
	return err
}

func init() {
	var favoritesOnly bool
	watchCmd := &cobra.Command{
		Use:   "watch [--fav]",
		Short: "Print the note list and preferences whenever they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				return watchHome(ctx, a, cmd.OutOrStdout(), favoritesOnly)
			})
		},
	}
	watchCmd.Flags().BoolVar(&favoritesOnly, "fav", false, "favorites only")
	rootCmd.AddCommand(watchCmd)
}
