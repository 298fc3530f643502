// Planctl is the command-line client for a running floorpland instance. It
// connects over HTTP, SSE, and WebSocket to query status, start generation
// runs, and stream live pipeline events from the daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/LuisBackhaus/floorplan-engine/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Floorplan daemon URL (e.g. http://192.168.1.20:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter status,room_detected)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --style are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "config":
		err = ctl.Config(*host, *jsonOut)

	case "config-list":
		err = ctl.ConfigList(*host, *jsonOut)

	case "runs":
		err = ctl.Runs(*host, *jsonOut)

	case "stats":
		err = ctl.Stats(*host, *jsonOut)

	case "logs":
		opts := ctl.LogsOptions{JSON: *jsonOut}
		logFlags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
		logFlags.StringVar(&opts.Type, "type", "", "Filter by event type (e.g. status, error)")
		logFlags.StringVar(&opts.Run, "run", "", "Filter by run ID")
		logFlags.IntVar(&opts.Limit, "limit", 0, "Limit number of entries shown")
		_ = logFlags.Parse(subArgs)
		err = ctl.Logs(*host, opts)

	// ── Control commands ──────────────────────────────────────────
	case "upload":
		opts := ctl.UploadOptions{JSON: *jsonOut}
		upFlags := pflag.NewFlagSet("upload", pflag.ContinueOnError)
		upFlags.StringVar(&opts.Style, "style", "modern", "Furnishing style for the generation run")
		_ = upFlags.Parse(subArgs)
		if upFlags.NArg() < 1 {
			err = fmt.Errorf("upload requires a floor-plan image path")
			break
		}
		err = ctl.Upload(*host, upFlags.Arg(0), opts)

	case "reload":
		opts := ctl.ReloadOptions{JSON: *jsonOut}
		reloadFlags := pflag.NewFlagSet("reload", pflag.ContinueOnError)
		reloadFlags.StringVar(&opts.Profile, "profile", "", "Switch to a named config profile")
		_ = reloadFlags.Parse(subArgs)
		err = ctl.Reload(*host, opts)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		opts := ctl.WatchOptions{Filter: *filter, JSON: *jsonOut}
		watchFlags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
		watchFlags.StringVar(&opts.Run, "run", "", "Only show events from this run ID")
		watchFlags.BoolVar(&opts.WS, "ws", false, "Use the WebSocket endpoint instead of SSE")
		_ = watchFlags.Parse(subArgs)
		err = ctl.Watch(*host, opts)

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  planctl — Floorplan Engine control CLI

  USAGE
    planctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show daemon state, uptime, and current activity
    health          Check daemon and component health
    version         Show CLI and daemon version information
    config          Show the daemon's running configuration
    config-list     List available config profiles
    runs            List pipeline runs (active and recently finished)
    stats           Show aggregate generation statistics
    logs            Show recent pipeline events

  COMMANDS (control)
    upload          Upload a floor-plan image and start a generation run
    reload          Reload configuration from disk

  COMMANDS (live)
    watch           Stream live pipeline events (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    upload:
        --style NAME        Furnishing style for the run (default: modern)

    logs:
        --type TYPE         Filter by event type (e.g. status, error)
        --run ID            Filter by run ID
        --limit N           Limit number of entries shown

    reload:
        --profile NAME      Switch to a named config profile

    watch:
        --run ID            Only show events from this run
        --ws                Use the WebSocket endpoint instead of SSE

  EXAMPLES
    planctl status
    planctl --json status
    planctl upload plan.png --style scandinavian
    planctl watch --run 7f3a2b1c
    planctl watch --filter room_detected,error
    planctl --host http://192.168.1.20:8080 watch --ws
    planctl logs --type error --limit 20
    planctl runs
    planctl stats
    planctl reload --profile example
    planctl config-list

`)
}
