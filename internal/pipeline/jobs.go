package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/contextcat/internal/aggregate"
)

// JobStatus represents the state of an aggregation run.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusReading   JobStatus = "reading"
	StatusWriting   JobStatus = "writing"
	StatusCompleted JobStatus = "completed"
	StatusUnchanged JobStatus = "unchanged"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusUnchanged || s == StatusFailed
}

// Job tracks a single aggregation run that writes back to the active document.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	req      aggregate.Request
	outcome  Outcome
	errors   []string
	duration time.Duration
	done     chan struct{}
}

// Outcome summarises what a run found.
type Outcome struct {
	TagMode bool     `json:"tag_mode"`
	Targets []string `json:"targets"`
	Sources int      `json:"sources"`
	Matched int      `json:"matched"`
}

// NewJob creates a queued job for req.
func NewJob(req aggregate.Request) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
		done:      make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs. Jobs that are still running are kept.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Entering a terminal status
// releases waiters on Done.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return
	}
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	if status.Terminal() && j.done != nil {
		close(j.done)
	}
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Request returns the aggregation request the job will run.
func (j *Job) Request() aggregate.Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.req
}

// SetRequest replaces the request of a job that has not started yet.
func (j *Job) SetRequest(req aggregate.Request) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusQueued {
		return false
	}
	j.req = req
	j.UpdatedAt = time.Now()
	return true
}

// SetOutcome records what the aggregation found and the hash of its output.
func (j *Job) SetOutcome(res *aggregate.Result, hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outcome = Outcome{
		TagMode: res.TagMode,
		Targets: res.Targets,
		Sources: res.Sources,
		Matched: res.Matched,
	}
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetDuration records the wall time of the run.
func (j *Job) SetDuration(d time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.duration = d
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string         `json:"job_id"`
	ActivePath  string         `json:"active_path"`
	Mode        aggregate.Mode `json:"mode"`
	Status      JobStatus      `json:"status"`
	Phase       string         `json:"phase"`
	Outcome     Outcome        `json:"outcome"`
	ContentHash string         `json:"content_hash,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
	Errors      []string       `json:"errors"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	targets := append([]string{}, j.outcome.Targets...)
	return JobSnapshot{
		ID:         j.ID,
		ActivePath: j.req.ActivePath,
		Mode:       j.req.Mode,
		Status:     j.Status,
		Phase:      j.Phase,
		Outcome: Outcome{
			TagMode: j.outcome.TagMode,
			Targets: targets,
			Sources: j.outcome.Sources,
			Matched: j.outcome.Matched,
		},
		ContentHash: j.ContentHash,
		DurationMs:  j.duration.Milliseconds(),
		Errors:      errs,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
