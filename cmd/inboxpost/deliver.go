package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/inboxpost/deliver"
)

func newDeliverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deliver",
		Short: "Sign the configured document and POST it to the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDeliver(cmd)
		},
	}
}

// newClient validates the loaded config and builds a delivery client. The
// private key is parsed here, before anything touches the network.
func (a *app) newClient() (*deliver.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	return deliver.New(a.cfg.DeliverConfig(), deliver.WithLogger(a.logger))
}

func (a *app) runDeliver(cmd *cobra.Command) error {
	client, err := a.newClient()
	if err != nil {
		return err
	}

	res, err := client.DeliverFile(cmd.Context(), a.cfg.Document)
	if res != nil {
		fmt.Fprintln(cmd.OutOrStdout(), res.Status)

		if len(res.Body) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), string(res.Body))
		}
	}

	if err != nil {
		a.logger.Error("delivery failed", zap.String("document", a.cfg.Document), zap.Error(err))
		return err
	}

	return nil
}
