package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/internal/observability"
	"github.com/revu-dev/revu/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the review engine over HTTP",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			orch, cache, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			// Drop expired AI responses on the cache's own schedule.
			if cache != nil && cfg.AI.CacheTTL > 0 {
				go func() {
					ticker := time.NewTicker(cfg.AI.CacheTTL)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							cache.Purge()
						}
					}
				}()
			}

			srv := server.New(cfg, orch, logger)
			logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
			return srv.Run(ctx)
		},
	}

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return serveCmd
}
