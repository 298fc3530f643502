// Floorpland is the floor-plan generation daemon.
//
// It loads configuration, starts the HTTP server with the SSE and WebSocket
// event streams, and runs uploaded plans through the generation pipeline.
// Shutdown is handled gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/LuisBackhaus/floorplan-engine/internal/app"
	"github.com/LuisBackhaus/floorplan-engine/internal/config"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/floorplan/floorplan.toml", "Path to config TOML")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides config)")
		simulate   = pflag.Bool("simulate", false, "Force the offline simulated generator")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("config load failed: %v", err)
		}
		// No config file is fine for local use; run on defaults.
		cfg = config.Default()
		*configPath = ""
	}
	if *simulate {
		cfg.GenAI.Simulate = true
	}

	logger := log.New(os.Stdout, "floorpland ", log.LstdFlags|log.Lmicroseconds)

	a := app.New(app.Options{
		Logger:     logger,
		Cfg:        cfg,
		ConfigPath: *configPath,
		Bind:       *bind,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("floorpland failed: %v", err)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
