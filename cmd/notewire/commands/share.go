package commands

import (
	"github.com/spf13/cobra"
)

// share <id>: sign and publish a note to every configured relay.
func shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <id>",
		Short: "Publish a note to the configured relays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureOnline(cmd); err != nil {
				return err
			}
			return appCtx.Sync.Share(cmd.Context(), args[0])
		},
	}
}
