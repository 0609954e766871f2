package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// clear: erase the stored identity record. Destructive; gated on --yes.
func clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase the stored identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Identity.Clear(yes); err != nil {
				return err
			}
			fmt.Println("Identity erased.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing the identity")
	return cmd
}
