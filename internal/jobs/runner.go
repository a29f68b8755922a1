// Package jobs runs pipelines in the background, one at a time, and keeps the
// status and log stream of recent runs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/logstream"
	"chatbridge/internal/model"
)

// Kind names a pipeline that can be started as a job.
type Kind string

const (
	KindConversations Kind = "conversations"
	KindPresets       Kind = "presets"
	KindBackup        Kind = "backup"
)

// Kinds lists every valid Kind.
var Kinds = []Kind{KindConversations, KindPresets, KindBackup}

// ParseKind validates s as a job kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Kinds {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown job kind %q", app_errors.ErrValidation, s)
}

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is what a job function reports back.
type Outcome struct {
	Result model.Result
	// Detail carries kind-specific output, such as a backup report.
	Detail any
}

// Func is the body of a job. logger tees into the job's log queue.
type Func func(ctx context.Context, logger *slog.Logger) (Outcome, error)

// Snapshot is a point-in-time view of a job.
type Snapshot struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	Status      Status       `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Result      model.Result `json:"result"`
	Detail      any          `json:"detail,omitempty"`
	Error       string       `json:"error,omitempty"`
	DroppedLogs int64        `json:"dropped_logs"`
}

// DefaultHistory is how many finished jobs a Runner remembers.
const DefaultHistory = 32

// Options configure a Runner. Zero values pick defaults.
type Options struct {
	// Handler receives every job log record in addition to the job's queue.
	Handler   slog.Handler
	Level     slog.Leveler
	QueueSize int
	History   int
	Now       func() time.Time
	NewID     func() string
}

type job struct {
	seq    int
	snap   Snapshot
	queue  *logstream.Queue
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner starts jobs on a background goroutine and allows at most one to run
// at any time.
type Runner struct {
	opts Options
	ctx  context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	jobs   map[string]*job
	seq    int
	active string
	wg     sync.WaitGroup
}

// NewRunner returns a Runner whose jobs are cancelled when ctx is done or
// Shutdown is called.
func NewRunner(ctx context.Context, opts Options) *Runner {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = logstream.DefaultQueueSize
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	ctx, stop := context.WithCancel(ctx)
	return &Runner{opts: opts, ctx: ctx, stop: stop, jobs: make(map[string]*job)}
}

// Start launches fn as a job of the given kind. It fails with ErrConflict
// while another job is running.
func (r *Runner) Start(kind Kind, fn Func) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return Snapshot{}, fmt.Errorf("%w: job %s is still running", app_errors.ErrConflict, r.active)
	}
	if err := r.ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: runner is shut down", app_errors.ErrConflict)
	}

	ctx, cancel := context.WithCancel(r.ctx)
	r.seq++
	j := &job{
		snap: Snapshot{
			ID:        r.opts.NewID(),
			Kind:      kind,
			Status:    StatusRunning,
			StartedAt: r.opts.Now(),
		},
		queue:  logstream.NewQueue(r.opts.QueueSize),
		cancel: cancel,
		done:   make(chan struct{}),
		seq:    r.seq,
	}
	r.jobs[j.snap.ID] = j
	r.active = j.snap.ID
	r.evictLocked()

	logger := slog.New(logstream.NewHandler(r.opts.Handler, j.queue, r.opts.Level)).
		With("job_id", j.snap.ID, "job_kind", string(kind))

	r.wg.Add(1)
	go r.execute(ctx, j, fn, logger)

	return j.snap, nil
}

func (r *Runner) execute(ctx context.Context, j *job, fn Func, logger *slog.Logger) {
	defer r.wg.Done()
	defer close(j.done)
	defer j.cancel()

	logger.Info("Job started")
	out, err := safeCall(ctx, fn, logger)
	if err != nil {
		logger.Error("Job failed", "error", err)
	} else {
		logger.Info("Job finished", "migrated", out.Result.Migrated,
			"skipped", out.Result.Skipped, "failed", out.Result.Failed)
	}

	r.mu.Lock()
	finished := r.opts.Now()
	j.snap.FinishedAt = &finished
	j.snap.Result = out.Result
	j.snap.Detail = out.Detail
	j.snap.Status = StatusSucceeded
	if err != nil {
		j.snap.Status = StatusFailed
		j.snap.Error = err.Error()
	}
	if r.active == j.snap.ID {
		r.active = ""
	}
	r.mu.Unlock()

	j.queue.Close()
}

func safeCall(ctx context.Context, fn Func, logger *slog.Logger) (out Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: job panicked: %v", app_errors.ErrInternal, p)
		}
	}()
	return fn(ctx, logger)
}

// evictLocked forgets the oldest finished jobs beyond the history limit.
func (r *Runner) evictLocked() {
	if len(r.jobs) <= r.opts.History {
		return
	}
	finished := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if j.snap.FinishedAt != nil {
			finished = append(finished, j)
		}
	}
	sort.Slice(finished, func(a, b int) bool {
		return finished[a].seq < finished[b].seq
	})
	for _, j := range finished {
		if len(r.jobs) <= r.opts.History {
			return
		}
		delete(r.jobs, j.snap.ID)
	}
}

func (r *Runner) lookup(id string) (*job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", app_errors.ErrNotFound, id)
	}
	return j, nil
}

// Get returns the current snapshot of a job.
func (r *Runner) Get(id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, err := r.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	snap := j.snap
	snap.DroppedLogs = j.queue.Dropped()
	return snap, nil
}

// Logs returns the log queue of a job. The queue is closed when the job ends.
func (r *Runner) Logs(id string) (*logstream.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return j.queue, nil
}

// Wait blocks until the job ends or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (Snapshot, error) {
	r.mu.Lock()
	j, err := r.lookup(id)
	r.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}

	select {
	case <-j.done:
		return r.Get(id)
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Shutdown cancels the running job, if any, and waits for it to return.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.stop()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
