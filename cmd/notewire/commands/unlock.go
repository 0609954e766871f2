package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// unlock: decrypt the stored identity to verify the passphrase.
func unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Verify the passphrase against the stored identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassphrase()
			if err != nil {
				return err
			}
			if err := appCtx.Identity.Unlock(cmd.Context(), pw); err != nil {
				return err
			}
			fmt.Printf("Unlocked.\nPublic key: %s\n", appCtx.Identity.PublicKey())
			return nil
		},
	}
}
