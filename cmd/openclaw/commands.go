package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manthysbr/openclaw/internal/adapters/filestore"
	"github.com/manthysbr/openclaw/internal/core/domain"
)

func newEnqueueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <type> [key=value...]",
		Short: "Append a command to the local queue",
		Example: `  openclaw enqueue deploy name="Nova Claw" symbol=NCLA
  openclaw enqueue post text="gm builders"
  openclaw enqueue premium name=Whale requester=@whale payment_ref=0xfeed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseCommandKind(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			queue := filestore.NewCommandQueue(a.logger.With("component", "command_queue"), a.cfg.Storage.CommandsPath)
			queued, err := queue.Enqueue(cmd.Context(), kind, params)
			if err != nil {
				return fmt.Errorf("failed to enqueue command: %w", err)
			}
			return writeIndented(cmd.OutOrStdout(), queued)
		},
	}
}

// parseParams turns key=value arguments into command params.
func parseParams(args []string) (domain.Params, error) {
	params := domain.Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

func newRecordsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print the deployment log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := filestore.NewRecordStore(a.logger.With("component", "record_store"), a.cfg.Storage.DeploymentsPath)
			recs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(recs) > limit {
				recs = recs[len(recs)-limit:]
			}
			return writeIndented(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n records")
	return cmd
}

func newEncryptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a secret for use as an enc: value in config.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.key.Encrypt(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), enc)
			return err
		},
	}
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
