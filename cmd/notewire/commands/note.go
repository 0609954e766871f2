package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// note set|rm|list: manage local note bodies. Edits run the sync engine's
// republish decision; removal propagates a retraction when the note was
// published.
func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage local notes",
	}
	cmd.AddCommand(noteSetCmd(), noteRmCmd(), noteListCmd())
	return cmd
}

func noteSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> [content]",
		Short: "Create or edit a note (reads stdin when content is omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var content string
			if len(args) == 2 {
				content = args[1]
			} else {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				content = string(b)
			}
			if err := appCtx.Notebook.PutNote(id, content); err != nil {
				return err
			}
			if needsNetwork(id) {
				if err := ensureOnline(cmd); err != nil {
					return err
				}
			}
			return appCtx.Sync.HandleEdit(cmd.Context(), id)
		},
	}
}

func noteRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note, retracting it if published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if needsNetwork(id) {
				if err := ensureOnline(cmd); err != nil {
					return err
				}
			}
			if err := appCtx.Sync.HandleDelete(cmd.Context(), id); err != nil {
				return err
			}
			return appCtx.Notebook.DeleteNote(id)
		},
	}
}

func noteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List note ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := appCtx.Notebook.Notes()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}
