// Package app wires together the HTTP server, the broadcast bus, and the
// pipeline runner. It owns the daemon's lifecycle and is the single source
// of truth for the current operating state.
package app

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LuisBackhaus/floorplan-engine/internal/config"
	"github.com/LuisBackhaus/floorplan-engine/internal/genai"
	"github.com/LuisBackhaus/floorplan-engine/internal/pipeline"
	"github.com/LuisBackhaus/floorplan-engine/internal/stream"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *log.Logger
	Cfg        config.Config
	ConfigPath string
	Bind       string

	// Generator overrides backend selection when non-nil (used by tests).
	Generator genai.Generator
}

// App is the top-level daemon process. It manages the HTTP server, the
// event bus, and the pipeline runner.
type App struct {
	log  *log.Logger
	bind string

	cfgMu      sync.Mutex
	cfg        config.Config
	configPath string

	server    *http.Server
	startedAt time.Time
	state     atomic.Value // current state string (BOOTING, IDLE, GENERATING)

	bus    *stream.Bus
	runner *pipeline.Runner
	runCtx context.Context

	events *eventLog
	stats  runStats
}

// New creates an App in the BOOTING state. Call Run to start serving.
func New(opts Options) *App {
	a := &App{
		log:        opts.Logger,
		bind:       opts.Bind,
		cfg:        opts.Cfg,
		configPath: opts.ConfigPath,
		startedAt:  time.Now(),
		bus:        stream.NewBus(opts.Cfg.Stream.QueueSize),
		events:     newEventLog(500),
	}
	a.state.Store("BOOTING")

	gen := opts.Generator
	if gen == nil {
		gen = a.selectGenerator(opts.Cfg)
	}
	a.runner = pipeline.NewRunner(a.bus, gen, opts.Logger)
	a.runner.SetFinishCallback(func(info pipeline.RunInfo, active int) {
		a.stats.recordFinish(info)
		if active == 0 {
			a.transition("IDLE")
		}
	})

	return a
}

// selectGenerator picks the offline simulated backend when configured to,
// or when no API key can be resolved, and the REST client otherwise.
func (a *App) selectGenerator(cfg config.Config) genai.Generator {
	key := cfg.GenAI.APIKey()
	if cfg.GenAI.Simulate || key == "" {
		if !cfg.GenAI.Simulate {
			a.log.Printf("no API key in $%s, falling back to simulated generation", cfg.GenAI.APIKeyEnv)
		}
		return &genai.Simulated{
			Latency:       400 * time.Millisecond,
			InteriorShots: cfg.Pipeline.InteriorShots,
		}
	}
	return genai.NewClient(cfg.GenAI.BaseURL, key, time.Duration(cfg.GenAI.TimeoutSeconds)*time.Second)
}

// Run starts the HTTP server and the bus tap that records recent events.
// It blocks until the context is cancelled or the server returns an error.
func (a *App) Run(ctx context.Context) error {
	cfg := a.getConfig()

	bind := a.bind
	if bind == "" && cfg.Server.Bind != "" {
		bind = cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	if err := os.MkdirAll(cfg.Data.Uploads, 0o755); err != nil {
		return err
	}

	a.runCtx = ctx

	mux := http.NewServeMux()
	mux.HandleFunc("/", a.handleRoot)
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/upload", a.handleUpload)
	mux.Handle("/stream", stream.SSEHandler(a.bus))
	mux.Handle("/ws", stream.WSHandler(a.bus))
	mux.HandleFunc("/uploads/", a.handleUploads)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/config-profiles", a.handleConfigProfiles)
	mux.HandleFunc("/api/runs", a.handleRuns)
	mux.HandleFunc("/api/logs", a.handleLogs)
	mux.HandleFunc("/api/stats", a.handleStats)
	mux.HandleFunc("/api/reload", a.handleReload)

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("listening on http://%s", bind)

	go a.tapEvents(ctx)
	a.transition("IDLE")

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		_ = a.server.Shutdown(context.Background())
	}()

	return a.server.Serve(ln)
}

// Bus exposes the broadcast bus, mainly for tests.
func (a *App) Bus() *stream.Bus { return a.bus }

// transition atomically updates the daemon state string and announces the
// change on the stream.
func (a *App) transition(newState string) {
	old := a.state.Load().(string)
	if old == newState {
		return
	}
	a.state.Store(newState)
	a.log.Printf("state %s -> %s", old, newState)
	a.bus.Publish(stream.NewEnvelope("", stream.EventStatus, map[string]any{
		"message": "Daemon state: " + newState,
	}))
}

// tapEvents subscribes the daemon itself to the bus and records every
// envelope in the in-memory event log backing GET /api/logs.
func (a *App) tapEvents(ctx context.Context) {
	sub := a.bus.Subscribe()
	defer a.bus.Unsubscribe(sub)

	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		a.events.add(env)
	}
}

func (a *App) getConfig() config.Config {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	return a.cfg
}
