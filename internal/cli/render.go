package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelforge/internal/deps"
	"github.com/forPelevin/reelforge/internal/history"
	"github.com/forPelevin/reelforge/internal/pipeline"
	"github.com/forPelevin/reelforge/internal/progress"
	"github.com/forPelevin/reelforge/internal/project"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		out        string
		workDir    string
		parallel   int
		noCaptions bool
		skipCheck  bool
	)
	cmd := &cobra.Command{
		Use:   "render <project>",
		Short: "Render a project descriptor (YAML or JSON) into a vertical video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if parallel < 0 {
				return fmt.Errorf("config: parallel must be >= 0")
			}

			projectPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			p, err := project.Load(projectPath)
			if err != nil {
				return err
			}
			if !skipCheck {
				if err := deps.MissingError(deps.CheckBinaries(requirements(cfg, needsNarration(p)))); err != nil {
					return err
				}
			}

			store, err := history.Open(cfg.HistoryPath(), logger)
			if err != nil {
				logger.Warn("run history unavailable", "error", err)
				store = nil
			}
			defer store.Close()

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			events := make(chan progress.Event, 64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				progress.NewConsole(cmd.ErrOrStderr()).Consume(events)
			}()

			rep, err := pipeline.Run(runCtx, pipeline.Config{
				App:         cfg,
				Project:     p,
				ProjectPath: projectPath,
				Output:      out,
				WorkDir:     workDir,
				Parallel:    parallel,
				NoCaptions:  noCaptions,
				Events:      events,
				Logger:      logger,
				History:     store,
			})
			close(events)
			<-done
			if err != nil {
				if rep.RunDir != "" {
					return fmt.Errorf("%w\nintermediate files kept in %s", err, rep.RunDir)
				}
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "output: %s\n", rep.Output)
			fmt.Fprintf(w, "duration: %.2fs (%s mode)\n", rep.Total.Seconds(), rep.Mode)
			if rep.Captions != "" {
				fmt.Fprintf(w, "captions: %s\n", rep.Captions)
			}
			fmt.Fprintf(w, "run: %s\n", rep.Manifest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output video path (defaults to the project's output_path or the output directory)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Directory for intermediate artifacts")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Stages synthesized concurrently (0 uses the config value)")
	cmd.Flags().BoolVar(&noCaptions, "no-captions", false, "Do not generate captions")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip the external tool availability check")
	return cmd
}
