package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/parser"
	"github.com/dgallion1/contextcat/internal/pipeline"
	"github.com/dgallion1/contextcat/internal/vault"
)

type runRequest struct {
	ActivePath string `json:"active_path"`
	Mode       string `json:"mode"`
	HTML       bool   `json:"html"`
}

// buildRequest resolves the active document and the current source
// selection into an aggregation request.
func (s *Server) buildRequest(ctx context.Context, body runRequest) (aggregate.Request, error) {
	modeName := body.Mode
	if modeName == "" {
		modeName = s.cfg.DefaultMode
	}
	mode, err := aggregate.ParseMode(modeName)
	if err != nil {
		return aggregate.Request{}, err
	}

	active := vault.Clean(body.ActivePath)
	if active == "" {
		if loc, ok := s.vault.(vault.ActiveLocator); ok {
			if active, err = loc.Active(ctx); err != nil {
				return aggregate.Request{}, fmt.Errorf("%w: %v", aggregate.ErrNoActiveDocument, err)
			}
		}
	}
	if active == "" {
		return aggregate.Request{}, aggregate.ErrNoActiveDocument
	}

	st, err := s.settings.Get()
	if err != nil {
		return aggregate.Request{}, err
	}
	return aggregate.Request{ActivePath: active, Filter: st.Filter(), Mode: mode}, nil
}

type aggregateResponse struct {
	*aggregate.Result
	HTML    string           `json:"html,omitempty"`
	Outline []parser.Heading `json:"outline,omitempty"`
}

// handleAggregate composes the active document without writing it.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := decodeBody(w, r, &body); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := s.buildRequest(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.agg.Run(r.Context(), req)
	if err != nil {
		s.log.Error("aggregation failed", "active", req.ActivePath, "error", err)
		writeError(w, err)
		return
	}

	resp := aggregateResponse{Result: res}
	if body.HTML {
		html, err := parser.RenderHTML(res.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.HTML = html
		resp.Outline = parser.Outline(res.Content)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSubmitRun queues a run that writes the composed document back.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := decodeBody(w, r, &body); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := s.buildRequest(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	job := pipeline.NewJob(req)
	queued, err := s.orchestrator.Submit(job)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := queued.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":    snap.ID,
		"status":    snap.Status,
		"poll_url":  fmt.Sprintf("/api/runs/%s/status", snap.ID),
		"coalesced": queued != job,
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
