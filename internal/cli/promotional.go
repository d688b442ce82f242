package cli

import (
	"github.com/spf13/cobra"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/ingest"
)

// NewPromotionalCommand collects likely-promotional content: the search is
// pre-seeded with the configured promotional keywords against
// commercially-oriented partitions.
func NewPromotionalCommand(root *RootOptions) *cobra.Command {
	var (
		partitions     []string
		partitionsFile string
		keywordsFile   string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "promotional",
		Short: "Collect posts likely to be promotional",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}

			if partitionsFile != "" {
				loaded, err := ingest.LoadPartitions(partitionsFile)
				if err != nil {
					return err
				}
				partitions = append(partitions, loaded...)
			}
			if keywordsFile != "" {
				extra, err := ingest.LoadKeywords(keywordsFile)
				if err != nil {
					return err
				}
				// Operator-supplied keywords seed the query first.
				cfg.Detection.Keywords = append(extra, cfg.Detection.Keywords...)
			}

			s, store, err := buildScraper(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := s.CollectPromotional(cmd.Context(), partitions, limit)
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&partitions, "partitions", "p", nil, "partitions to search (default: configured commercial partitions)")
	cmd.Flags().StringVar(&partitionsFile, "partitions-file", "", "CSV file of partition targets")
	cmd.Flags().StringVar(&keywordsFile, "keywords-file", "", "CSV file of extra promotional keywords")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum posts to collect")

	return cmd
}
