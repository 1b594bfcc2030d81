package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

func newCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the subscriber counter and per-status totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.close()

			st, err := subscriber.NewService(b.store, nil, subscriber.WithLogger(log)).Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "counter: %d\ntotal: %d\nactive: %d\npending: %d\nunsubscribed: %d\n",
				st.Counter, st.Total, st.Active, st.Pending, st.Unsubscribed)
			return nil
		},
	}
}
