package cli

import (
	"github.com/spf13/cobra"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/domain"
)

// NewSearchCommand runs one collection run for the given keywords.
func NewSearchCommand(root *RootOptions) *cobra.Command {
	var (
		keywords    []string
		partitions  []string
		sort        string
		window      string
		limit       int
		minScore    int
		minComments int
		includeNSFW bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search Reddit and collect classified posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}

			s, store, err := buildScraper(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := s.Run(cmd.Context(), domain.SearchSpec{
				Keywords:    keywords,
				Partitions:  partitions,
				Sort:        domain.Sort(sort),
				TimeWindow:  domain.TimeWindow(window),
				Limit:       limit,
				IncludeNSFW: includeNSFW,
				MinScore:    minScore,
				MinComments: minComments,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&keywords, "keywords", "k", nil, "search keywords (required)")
	cmd.Flags().StringSliceVarP(&partitions, "partitions", "p", nil, "partitions to search (default: all of Reddit)")
	cmd.Flags().StringVar(&sort, "sort", "", "sort order: relevance|hot|new|top|comments")
	cmd.Flags().StringVar(&window, "window", "", "time window: hour|day|week|month|year|all")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum posts to collect")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "minimum post score")
	cmd.Flags().IntVar(&minComments, "min-comments", 0, "minimum comment count")
	cmd.Flags().BoolVar(&includeNSFW, "nsfw", false, "include NSFW posts")
	cmd.MarkFlagRequired("keywords")

	return cmd
}
