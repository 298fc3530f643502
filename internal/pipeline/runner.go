package pipeline

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LuisBackhaus/floorplan-engine/internal/config"
	"github.com/LuisBackhaus/floorplan-engine/internal/genai"
	"github.com/LuisBackhaus/floorplan-engine/internal/stream"
)

// RunState describes where a run is in its lifecycle.
type RunState string

const (
	RunRunning  RunState = "running"
	RunComplete RunState = "complete"
	RunFailed   RunState = "failed"
)

// finishedRetention is how long finished run records stay visible in
// Runs() before being pruned.
const finishedRetention = time.Hour

// Run is the supervised handle for one pipeline execution. The goroutine
// behind it is fire-and-forget from the upload handler's point of view, but
// the handle is retained so faults are observed and logged rather than
// dying silently.
type Run struct {
	ID       string
	Style    string
	Filename string

	mu         sync.Mutex
	state      RunState
	err        string
	rooms      int
	images     int
	startedAt  time.Time
	finishedAt time.Time

	done chan struct{}
}

// Done returns a channel closed when the run finishes, however it ends.
func (r *Run) Done() <-chan struct{} { return r.done }

// Info snapshots the run for reporting.
func (r *Run) Info() RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := RunInfo{
		ID:        r.ID,
		Style:     r.Style,
		Filename:  r.Filename,
		State:     string(r.state),
		Error:     r.err,
		Rooms:     r.rooms,
		Images:    r.images,
		StartedAt: r.startedAt.UTC().Format(time.RFC3339),
	}
	if !r.finishedAt.IsZero() {
		info.FinishedAt = r.finishedAt.UTC().Format(time.RFC3339)
		info.DurationS = int(r.finishedAt.Sub(r.startedAt).Seconds())
	}
	return info
}

// RunInfo is the JSON-friendly view of a run handle.
type RunInfo struct {
	ID         string `json:"id"`
	Style      string `json:"style"`
	Filename   string `json:"filename"`
	State      string `json:"state"`
	Error      string `json:"error,omitempty"`
	Rooms      int    `json:"rooms"`
	Images     int    `json:"images"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	DurationS  int    `json:"duration_s,omitempty"`
}

// Runner starts and supervises pipeline runs. Multiple runs may execute
// concurrently; each has independent state and all publish onto the same
// bus, with every envelope tagged by its run ID.
type Runner struct {
	bus *stream.Bus
	gen genai.Generator
	log *log.Logger

	mu   sync.Mutex
	runs map[string]*Run

	// onFinish, when set, is called after every run ends, with the final
	// snapshot and the number of still-active runs.
	onFinish func(info RunInfo, active int)
}

// NewRunner wires a runner to the broadcast bus and a generation backend.
func NewRunner(bus *stream.Bus, gen genai.Generator, logger *log.Logger) *Runner {
	return &Runner{
		bus:  bus,
		gen:  gen,
		log:  logger,
		runs: make(map[string]*Run),
	}
}

// SetFinishCallback registers a function invoked when any run ends.
func (rn *Runner) SetFinishCallback(fn func(info RunInfo, active int)) {
	rn.onFinish = fn
}

// Start launches one detached pipeline run and returns its handle
// immediately. ctx should outlive the request that triggered the upload;
// the daemon passes its own lifetime context so shutdown cancels in-flight
// generation calls. cfg is snapshotted per run, so a config reload affects
// later runs without disturbing in-flight ones.
func (rn *Runner) Start(ctx context.Context, cfg config.Config, planBytes []byte, style, filename string) *Run {
	run := &Run{
		ID:        uuid.NewString()[:8],
		Style:     style,
		Filename:  filename,
		state:     RunRunning,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	rn.mu.Lock()
	rn.prune()
	rn.runs[run.ID] = run
	rn.mu.Unlock()

	em := &emitter{bus: rn.bus, runID: run.ID}
	orch := &orchestrator{gen: rn.gen, cfg: cfg, log: rn.log}

	rn.log.Printf("run %s started (style=%q, plan=%s, %d bytes)", run.ID, style, filename, len(planBytes))

	go func() {
		defer close(run.done)
		defer func() {
			if p := recover(); p != nil {
				rn.log.Printf("run %s panicked: %v\n%s", run.ID, p, debug.Stack())
				rn.finish(run, em, fmt.Errorf("internal error: %v", p))
			}
		}()

		err := orch.execute(ctx, em, planBytes, style)
		rn.finish(run, em, err)
	}()

	return run
}

// finish records the run outcome, emits the error envelope for failed runs,
// and fires the finish callback. Safe against double invocation from the
// panic path.
func (rn *Runner) finish(run *Run, em *emitter, err error) {
	run.mu.Lock()
	if run.state != RunRunning {
		run.mu.Unlock()
		return
	}
	run.rooms = em.rooms
	run.images = em.images
	run.finishedAt = time.Now()
	if err != nil {
		run.state = RunFailed
		run.err = err.Error()
	} else {
		run.state = RunComplete
	}
	run.mu.Unlock()

	if err != nil {
		em.emit(stream.EventError, map[string]any{"message": err.Error()})
		rn.log.Printf("run %s failed: %v", run.ID, err)
	} else {
		rn.log.Printf("run %s complete: %d rooms, %d images", run.ID, em.rooms, em.images)
	}

	if rn.onFinish != nil {
		rn.onFinish(run.Info(), rn.Active())
	}
}

// Active reports the number of currently running pipelines.
func (rn *Runner) Active() int {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	n := 0
	for _, run := range rn.runs {
		if run.Info().State == string(RunRunning) {
			n++
		}
	}
	return n
}

// Runs snapshots all known runs, newest first. Finished runs older than the
// retention window have been pruned.
func (rn *Runner) Runs() []RunInfo {
	rn.mu.Lock()
	rn.prune()
	infos := make([]RunInfo, 0, len(rn.runs))
	for _, run := range rn.runs {
		infos = append(infos, run.Info())
	}
	rn.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt > infos[j].StartedAt
	})
	return infos
}

// prune drops finished runs past the retention window. Caller holds rn.mu.
func (rn *Runner) prune() {
	cutoff := time.Now().Add(-finishedRetention)
	for id, run := range rn.runs {
		run.mu.Lock()
		expired := run.state != RunRunning && run.finishedAt.Before(cutoff)
		run.mu.Unlock()
		if expired {
			delete(rn.runs, id)
		}
	}
}
