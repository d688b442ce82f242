package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/storage"
)

// NewStatsCommand prints store totals and the most recent runs.
func NewStatsCommand(root *RootOptions) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection totals and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}

			store, err := storage.Open(cfg.Storage.Path, cfg.Storage.MaxOpenConns)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "posts: %d (%d promotional), runs: %d\n",
				st.TotalPosts, st.PromotionalPosts, st.TotalRuns)

			runs, err := store.RecentRuns(recent)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(out, "  %s  %-11s  %4d collected  [%s] %s\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.Status, r.ResultCount,
					r.Partitions, r.Keywords)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "number of recent runs to list")

	return cmd
}
