package commands

import (
	"github.com/spf13/cobra"
)

// retract <id>: publish a retraction for a previously shared note.
func retractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retract <id>",
		Short: "Unshare a note by publishing a retraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureOnline(cmd); err != nil {
				return err
			}
			return appCtx.Sync.Retract(cmd.Context(), args[0])
		},
	}
}
