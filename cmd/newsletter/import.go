package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

func newImportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import subscribers from a CSV file (first column is the email)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open csv: %w", err)
				}
				defer f.Close()
				in = f
			}

			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.close()

			// Imports never send email, so no mailer is configured.
			subs := subscriber.NewService(b.store, nil, subscriber.WithLogger(log))
			res, err := subs.BulkImport(cmd.Context(), subscriber.ImportInput{CSV: in, UserAgent: "cli"})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "added: %d, skipped: %d, invalid: %d\n", res.Added, res.Skipped, res.Invalid)
			for _, msg := range res.Errors {
				fmt.Fprintln(out, "  "+msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `CSV file to import, "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
