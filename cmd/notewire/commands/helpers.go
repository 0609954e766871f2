package commands

import (
	"github.com/spf13/cobra"

	"notewire/internal/domain"
)

// ensureOnline unlocks the identity (prompting for the passphrase if
// needed) and connects the relay pool.
func ensureOnline(cmd *cobra.Command) error {
	if appCtx.Identity.Status() != domain.IdentityUnlocked {
		pw, err := readPassphrase()
		if err != nil {
			return err
		}
		if err := appCtx.Identity.Unlock(cmd.Context(), pw); err != nil {
			return err
		}
	}
	return appCtx.Pool.Connect(cmd.Context())
}

// needsNetwork reports whether an edit or delete of the note would have to
// publish: true when the note has a live published representation.
func needsNetwork(noteID string) bool {
	rec, ok, err := appCtx.Notebook.GetRecord(noteID)
	if err != nil || !ok {
		return false
	}
	return rec.IsShared && !rec.IsRetractedRemotely
}
