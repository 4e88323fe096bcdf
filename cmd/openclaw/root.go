package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/manthysbr/openclaw/internal/config"
	"github.com/manthysbr/openclaw/internal/observability"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfgFile string
	keyFile string

	cfg      *config.Config
	key      *config.SecretKey
	logger   *slog.Logger
	logClose io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "openclaw",
		Short:         "Autonomous token deployment agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logClose != nil {
				return a.logClose.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&a.keyFile, "key-file", "", "secret key file (default is ~/.openclaw/secret.key)")

	root.AddCommand(
		newRunCmd(a),
		newOnceCmd(a),
		newEnqueueCmd(a),
		newRecordsCmd(a),
		newEncryptCmd(a),
	)
	return root
}

func (a *app) init(console io.Writer) error {
	key, err := config.NewSecretKey(a.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load secret key: %w", err)
	}
	cfg, err := config.Load(a.cfgFile, key)
	if err != nil {
		return err
	}

	a.key = key
	a.cfg = cfg
	a.logger, a.logClose = observability.NewLogger(cfg.Logger, console)
	return nil
}
