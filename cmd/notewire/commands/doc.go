// Package commands defines the notewire CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - setup      Import a private key and encrypt it under a passphrase
//   - unlock     Verify the passphrase against the stored identity
//   - status     Print identity and publish-record state
//   - clear      Erase the stored identity (requires --yes)
//   - note       Manage local notes (set, rm, list)
//   - share      Publish a note to the configured relays
//   - retract    Unshare a note by publishing a retraction
//   - watch      Follow inbound retractions and reconcile local records
//
// # Implementation
//
// The root command builds the dependency graph (stores, identity service,
// relay pool, sync engine) before any subcommand runs, so handlers share one
// app context.
package commands
