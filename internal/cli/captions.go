package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelforge/internal/domain/subtitles"
)

func newCaptionsCommand() *cobra.Command {
	var (
		seconds float64
		out     string
	)
	cmd := &cobra.Command{
		Use:         "captions <script-file>",
		Short:       "Time a narration script into SRT captions",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if seconds <= 0 {
				return fmt.Errorf("--duration must be > 0")
			}
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			total := time.Duration(seconds * float64(time.Second))

			if out == "" {
				_, err := subtitles.WriteSRT(cmd.OutOrStdout(), subtitles.Generate(string(b), total))
				return err
			}
			n, err := subtitles.WriteSRTFile(out, string(b), total)
			if err != nil {
				return fmt.Errorf("write captions: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d captions to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&seconds, "duration", 0, "Total narration duration in seconds")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}
