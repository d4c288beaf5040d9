package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/vault"
)

// Worker executes a single aggregation job.
type Worker struct {
	agg    *aggregate.Aggregator
	writer vault.Writer
	log    *slog.Logger
}

func NewWorker(agg *aggregate.Aggregator, w vault.Writer, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{agg: agg, writer: w, log: log}
}

// Process runs the aggregation and writes the result back to the active
// document when it differs from the current content.
func (w *Worker) Process(ctx context.Context, job *Job) {
	req := job.Request()
	log := w.log.With("job_id", job.ID, "active", req.ActivePath)

	// Phase 1: Read and compose
	job.SetStatus(StatusReading, "reading")
	res, err := w.agg.Run(ctx, req)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "reading")
		return
	}

	hash := ContentHashHex([]byte(res.Content))
	job.SetOutcome(res, hash)

	// Phase 2: Skip identical output
	if hash == ContentHashHex([]byte(res.Original)) {
		log.Info("active document already up to date")
		job.SetStatus(StatusUnchanged, "done")
		return
	}

	// Phase 3: Write
	job.SetStatus(StatusWriting, "writing")
	if w.writer == nil {
		job.AddError(vault.ErrReadOnly.Error())
		job.SetStatus(StatusFailed, "writing")
		return
	}
	if err := w.writer.Write(ctx, req.ActivePath, res.Content); err != nil {
		log.Error("write failed", "error", err)
		job.AddError(fmt.Sprintf("write: %s", err))
		job.SetStatus(StatusFailed, "writing")
		return
	}

	log.Info("active document updated", "targets", len(res.Targets), "matched", res.Matched)
	job.SetStatus(StatusCompleted, "done")
}
