package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect the question bank",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Load the question bank and print its statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := newApp(cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.papers.CorpusStats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	})

	var limit int
	audit := &cobra.Command{
		Use:   "audit",
		Short: "Score every question for structural problems and print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := newApp(cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.papers.AuditCorpus(cmd.Context(), limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	audit.Flags().IntVar(&limit, "limit", 50, "Maximum problem records to list (0 = all)")
	cmd.AddCommand(audit)
	return cmd
}
