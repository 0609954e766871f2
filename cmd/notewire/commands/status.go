package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// status: print identity state and per-note publish records.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print identity and publish-record state",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Identity: %s\n", appCtx.Identity.Status())
			if pk := appCtx.Identity.PublicKey(); pk != "" {
				fmt.Printf("Public key: %s\n", pk)
			}

			records, err := appCtx.Notebook.Records()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No published notes.")
				return nil
			}
			for noteID, rec := range records {
				state := "unshared"
				switch {
				case rec.IsRetractedRemotely:
					state = "retracted"
				case rec.IsShared:
					state = "shared"
				}
				fmt.Printf("%s\t%s\tmessage=%s\n", noteID, state, rec.MessageID)
			}
			return nil
		},
	}
}
