package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
	"github.com/Zuo-Peng/axel-dashboard/internal/server"
	"github.com/Zuo-Peng/axel-dashboard/internal/status"
)

func serveCmd() *cobra.Command {
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server and live channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
				return fmt.Errorf("create logs dir: %w", err)
			}

			deps := server.Deps{
				Logs:      newLogStore(cfg),
				Knowledge: newKnowledgeStore(cfg),
				Notifier: notify.New(notify.Config{
					ActivityFile:    cfg.ActivityFile(),
					ConversationDir: cfg.ConversationDir,
				}, logger),
				Prober:    status.NewProber(cfg.StatusURL, cfg.StatusMatch),
				Roots:     noteRoots(cfg),
				PublicDir: cfg.PublicDir,
				Logger:    logger,
			}

			if !noIndex && cfg.DBPath != "" {
				db, err := index.OpenDB(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				defer db.Close()

				stats, err := index.IndexAll(db, deps.Roots)
				if err != nil {
					logger.Warn().Err(err).Msg("initial note index failed")
				} else {
					logger.Info().Stringer("stats", stats).Msg("note index ready")
				}
				deps.Index = db
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(deps).ListenAndServe(ctx, cfg.Addr())
		},
	}

	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Disable the note index and /api/search")

	return cmd
}
