package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forPelevin/reelforge/internal/history"
	"github.com/forPelevin/reelforge/internal/project"
)

const maxProjectBytes = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(withRequestID)
	r.Use(recoverPanics(cfg.Logger))
	r.Use(accessLog(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/runs", listRunsHandler(cfg))
	r.Post("/runs", submitRunHandler(cfg))
	r.Get("/runs/{id}", getRunHandler(cfg))
	r.Get("/runs/{id}/progress", progressHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		}
		if cfg.Runner != nil {
			resp.ActiveRun = cfg.Runner.Active()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listRunsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		runs, err := cfg.History.List(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to list runs")
			return
		}
		if runs == nil {
			runs = []history.Run{}
		}
		writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
	}
}

func getRunHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		run, err := cfg.History.Get(r.Context(), id)
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "run not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
			return
		}
		resp := RunResponse{Run: run}
		if cfg.Tracker != nil {
			if ev, ok := cfg.Tracker.Latest(id); ok {
				resp.Progress = &ev
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func progressHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if cfg.Tracker == nil {
			writeError(w, http.StatusNotFound, codeNotFound, "no progress for run")
			return
		}
		ev, ok := cfg.Tracker.Latest(id)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "no progress for run")
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func submitRunHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			writeError(w, http.StatusServiceUnavailable, codeUnavailable, "submission disabled")
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxProjectBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
			return
		}
		p, err := project.Decode(body, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid project: "+err.Error())
			return
		}
		if err := project.Validate(p); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		runID, err := cfg.Runner.Submit(p)
		if errors.Is(err, ErrBusy) {
			writeError(w, http.StatusConflict, codeBusy, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
			return
		}
		w.Header().Set(runIDHeader, runID)
		w.Header().Set("Location", "/runs/"+runID)
		writeJSON(w, http.StatusAccepted, SubmitResponse{RunID: runID})
	}
}
