package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/deps"
	"github.com/forPelevin/reelforge/internal/types"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether ffmpeg, ffprobe and edge-tts are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(requirements(cfg, true))
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				if !s.Available {
					state = "missing"
				}
				rows = append(rows, []string{s.Name, s.Command, state, s.Description, s.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(checkColumns, rows))
			if ctx.configPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", ctx.configPath)
			}
			return deps.MissingError(statuses)
		},
	}
}

// requirements lists the external tools a render invokes. edge-tts is only
// required when narration has to be synthesized.
func requirements(cfg *config.Config, narration bool) []deps.Requirement {
	return []deps.Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Transcodes, concatenates and muxes video"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Measures clip and narration durations"},
		{Name: "edge-tts", Command: deps.ResolveEdgeTTS(cfg.Tools.EdgeTTS), Description: "Synthesizes narration", Optional: !narration},
	}
}

func needsNarration(p types.Project) bool {
	if p.Staged() {
		for i := range p.Stages {
			if strings.TrimSpace(p.StageText(i)) != "" {
				return true
			}
		}
		return false
	}
	return p.AudioPath == "" && strings.TrimSpace(p.Script) != ""
}
