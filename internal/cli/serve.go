package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelforge/internal/api"
	"github.com/forPelevin/reelforge/internal/history"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/pipeline"
	"github.com/forPelevin/reelforge/internal/progress"
	"github.com/forPelevin/reelforge/internal/types"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve render history, progress and submission over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Paths.APIBind
			}

			store, err := history.Open(cfg.HistoryPath(), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			sigCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			tracker := progress.NewTracker()
			render := func(ctx context.Context, runID string, p types.Project, events chan<- progress.Event) error {
				_, err := pipeline.Run(ctx, pipeline.Config{
					App:     cfg,
					Project: p,
					RunID:   runID,
					Events:  events,
					Logger:  logger,
					History: store,
				})
				return err
			}
			runner := api.NewRunner(sigCtx, render, tracker, logging.WithComponent(logger, "runner"))

			srv := api.NewServer(api.ServerConfig{
				Addr:      addr,
				Logger:    logging.WithComponent(logger, "api"),
				History:   store,
				Tracker:   tracker,
				Runner:    runner,
				StartTime: time.Now(),
				Version:   Version,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err = <-errCh:
			case <-sigCtx.Done():
			}

			shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
			defer stop()
			if serr := srv.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, context.DeadlineExceeded) {
				logger.Warn("server shutdown", "error", serr)
			}
			cancel()
			runner.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
