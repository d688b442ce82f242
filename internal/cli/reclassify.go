package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/detector"
	"github.com/promowatch/reddit-collector/internal/domain"
	"github.com/promowatch/reddit-collector/internal/storage"
)

// NewReclassifyCommand re-runs the scorer over stored posts and persists
// the new labels. Stored posts carry no author metadata, so the
// author-behavior factor contributes nothing here.
func NewReclassifyCommand(root *RootOptions) *cobra.Command {
	var (
		partition string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run promotional classification over stored posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}

			det, err := detector.New(cfg.Detection)
			if err != nil {
				return err
			}

			store, err := storage.Open(cfg.Storage.Path, cfg.Storage.MaxOpenConns)
			if err != nil {
				return err
			}
			defer store.Close()

			scanned, changed := 0, 0
			for offset := 0; ; offset += batchSize {
				posts, err := store.ListPosts(storage.ListFilter{
					Partition: partition,
					Limit:     batchSize,
					Offset:    offset,
				})
				if err != nil {
					return err
				}
				if len(posts) == 0 {
					break
				}

				for _, p := range posts {
					cls := det.Analyze(domain.RawPost{
						ID:        p.ExternalID,
						Title:     p.Title,
						Body:      p.Body,
						Author:    p.Author,
						Partition: p.Partition,
						URL:       p.URL,
					})
					scanned++
					if cls.IsPromotional == p.IsPromotional && cls.Confidence == p.Confidence {
						continue
					}
					if err := store.Reclassify(p.ExternalID, cls.IsPromotional, cls.Confidence); err != nil {
						return err
					}
					changed++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reclassified %d of %d posts\n", changed, scanned)
			return nil
		},
	}

	cmd.Flags().StringVarP(&partition, "partition", "p", "", "only reclassify posts from this partition")
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "posts per batch")

	return cmd
}
