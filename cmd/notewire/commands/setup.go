package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"notewire/internal/crypto"
	"notewire/internal/domain"
)

// setup [private-key-hex]: import (or generate) a signing key and store it
// encrypted under the passphrase.
func setupCmd() *cobra.Command {
	var insecure bool

	cmd := &cobra.Command{
		Use:   "setup [private-key-hex]",
		Short: "Import a private key and encrypt it under a passphrase",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				key = crypto.GeneratePrivateKey()
				fmt.Println("Generated a fresh private key.")
			}
			pw, err := readPassphrase()
			if err != nil {
				return err
			}

			err = appCtx.Identity.Setup(cmd.Context(), key, pw, insecure)
			if errors.Is(err, domain.ErrWeakPassphrase) {
				return fmt.Errorf("%w (re-run with --insecure-ok to save anyway)", err)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Identity stored.\nPublic key: %s\n", appCtx.Identity.PublicKey())
			return nil
		},
	}
	cmd.Flags().BoolVar(&insecure, "insecure-ok", false, "confirm saving with a weak or empty passphrase")
	return cmd
}
