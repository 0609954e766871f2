package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"notewire/internal/app"
	"notewire/internal/config"
)

var (
	home       string
	passphrase string
	relayFlags []string
	verbose    bool

	appCtx *app.App
)

func Execute() error {
	log := logrus.New()

	root := &cobra.Command{
		Use:   "notewire",
		Short: "Identity custody and relay synchronization for your notes",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".notewire")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			settings, err := config.Load(filepath.Join(home, "config.toml"))
			if err != nil {
				return err
			}
			if len(relayFlags) > 0 {
				settings = config.Default(relayFlags)
			}

			appCtx, err = app.New(app.Config{
				Home:     home,
				Settings: settings,
				Notifier: &printNotifier{log: log},
				Logger:   log,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx != nil {
				return appCtx.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.notewire)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity key")
	root.PersistentFlags().StringSliceVar(&relayFlags, "relay", nil, "relay endpoint URL (repeatable; overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		setupCmd(), unlockCmd(), statusCmd(), clearCmd(),
		noteCmd(), shareCmd(), retractCmd(), watchCmd(),
	)
	return root.Execute()
}

// readPassphrase returns the -p flag value or prompts on the terminal
// without echo.
func readPassphrase() (string, error) {
	if passphrase != "" {
		return passphrase, nil
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
