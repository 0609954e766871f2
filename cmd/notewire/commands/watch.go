package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/cobra"
)

// watch: follow retraction events for our own publications and reconcile
// local publish records until interrupted.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow inbound retractions and reconcile local records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureOnline(cmd); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			filters := nostr.Filters{{
				Kinds:   []int{nostr.KindDeletion},
				Authors: []string{appCtx.Identity.PublicKey()},
			}}
			sub, err := appCtx.Pool.Subscribe(ctx, filters)
			if err != nil {
				return err
			}
			defer appCtx.Pool.Unsubscribe(cmd.Context(), sub.ID)

			if sub.WaitEOSE(ctx) {
				fmt.Println("Stored retractions replayed; watching for new ones.")
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-sub.Events:
					if !ok {
						return nil
					}
					if err := appCtx.Sync.HandleInbound(ev); err != nil {
						return err
					}
				}
			}
		},
	}
}
