package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/promowatch/reddit-collector/internal/config"
	"github.com/promowatch/reddit-collector/internal/dashboard"
	"github.com/promowatch/reddit-collector/internal/storage"
)

// NewDashboardCommand serves the chart dashboard over the store.
func NewDashboardCommand(root *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the collection dashboard",
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

			slog.Info("starting dashboard", "port", port)
			return dashboard.StartServer(store, port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "listen port")

	return cmd
}
