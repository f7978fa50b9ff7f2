package api

import (
	"github.com/forPelevin/reelforge/internal/history"
	"github.com/forPelevin/reelforge/internal/progress"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	UptimeS   int64  `json:"uptime_s"`
	ActiveRun string `json:"active_run,omitempty"`
}

type RunsResponse struct {
	Runs []history.Run `json:"runs"`
}

type RunResponse struct {
	history.Run
	Progress *progress.Event `json:"progress,omitempty"`
}

type SubmitResponse struct {
	RunID string `json:"run_id"`
}
