package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	internalApp "github.com/haierkeys/fast-note-local/internal/app"
	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/view"
	"github.com/haierkeys/fast-note-local/pkg/stream"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errMutationFailed = errors.New("operation failed, see log for details")

func ok(done bool) error {
	if !done {
		return errMutationFailed
	}
	return nil
}

// currentNote reads one snapshot of id, nil when absent
func currentNote(ctx context.Context, a *internalApp.App, id string) (*domain.Note, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return stream.First(ctx, a.NotesService.ObserveNote(ctx, id))
}

func printNotes(w io.Writer, notes []domain.Note) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFAV\tUPDATED\tAUTHOR\tTITLE")
	for _, n := range notes {
		fav := ""
		if n.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, fav, view.FormatTimestamp(n.UpdatedAt, nil), n.Author, n.Title)
	}
	tw.Flush()
}

func printNote(w io.Writer, n *domain.Note) {
	fmt.Fprintf(w, "ID:       %s\n", n.ID)
	fmt.Fprintf(w, "Title:    %s\n", n.Title)
	fmt.Fprintf(w, "Author:   %s\n", n.Author)
	fmt.Fprintf(w, "Favorite: %t\n", n.IsFavorite)
	fmt.Fprintf(w, "Created:  %s\n", view.FormatTimestamp(n.CreatedAt, nil))
	fmt.Fprintf(w, "Updated:  %s\n", view.FormatTimestamp(n.UpdatedAt, nil))
	if n.Body != "" {
		fmt.Fprintf(w, "\n%s\n", n.Body)
	}
}

func init() {
	var (
		title, body, author string
		favorite            bool
	)
	addCmd := &cobra.Command{
		Use:   "add -t title [-b body] [--fav] [--author name]",
		Short: "Add a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				if author != "" {
					return ok(a.NotesService.AddNote(ctx, title, body, author, favorite))
				}
				return ok(a.NotesService.AddNoteAsCurrentUser(ctx, title, body, favorite))
			})
		},
	}
	addCmd.Flags().StringVarP(&title, "title", "t", "", "note title")
	addCmd.Flags().StringVarP(&body, "body", "b", "", "note body")
	addCmd.Flags().StringVar(&author, "author", "", "author, defaults to the logged in user")
	addCmd.Flags().BoolVar(&favorite, "fav", false, "mark as favorite")
	_ = addCmd.MarkFlagRequired("title")

	var (
		favoritesOnly bool
		sortFlag      string
	)
	listCmd := &cobra.Command{
		Use:   "list [--fav] [--sort DATE|TITLE|FAVORITE]",
		Short: "List notes ordered by the sort preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				ctx, cancel := context.WithCancel(ctx)
				defer cancel()

				var notes []domain.Note
				if sortFlag != "" {
					sortBy, valid := domain.ParseSortBy(strings.ToUpper(sortFlag))
					if !valid {
						return errors.Errorf("unknown sort %q", sortFlag)
					}
					all, err := stream.First(ctx, a.NotesService.Notes(ctx))
					if err != nil {
						return err
					}
					notes = view.Project(all, favoritesOnly, sortBy)
				} else {
					var err error
					notes, err = stream.First(ctx, a.NotesService.ObserveHome(ctx, favoritesOnly))
					if err != nil {
						return err
					}
				}
				printNotes(cmd.OutOrStdout(), notes)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&favoritesOnly, "fav", false, "favorites only")
	listCmd.Flags().StringVar(&sortFlag, "sort", "", "override the stored sort order")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				n, err := currentNote(ctx, a, args[0])
				if err != nil {
					return err
				}
				if n == nil {
					return domain.ErrNoteNotFound
				}
				printNote(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}

	var editTitle, editBody string
	editCmd := &cobra.Command{
		Use:   "edit <id> [-t title] [-b body]",
		Short: "Edit the title or body of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				n, err := currentNote(ctx, a, args[0])
				if err != nil {
					return err
				}
				if n == nil {
					return domain.ErrNoteNotFound
				}
				newTitle, newBody := n.Title, n.Body
				if cmd.Flags().Changed("title") {
					newTitle = editTitle
				}
				if cmd.Flags().Changed("body") {
					newBody = editBody
				}
				return ok(a.NotesService.UpdateNote(ctx, n.ID, newTitle, newBody))
			})
		},
	}
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	editCmd.Flags().StringVarP(&editBody, "body", "b", "", "new body")

	favCmd := &cobra.Command{
		Use:   "fav <id>",
		Short: "Toggle the favorite flag of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				return ok(a.NotesService.ToggleFavorite(ctx, args[0]))
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				return ok(a.NotesService.DeleteNote(ctx, args[0]))
			})
		},
	}

	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, favCmd, rmCmd)
}
