package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LuisBackhaus/floorplan-engine/internal/config"
)

// maxUploadBytes caps one uploaded plan image.
const maxUploadBytes = 32 << 20

func (a *App) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Floorplan Generation API",
		"status":  "running",
	})
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	cfg := a.getConfig()

	checks := map[string]any{}
	allOK := true

	// Uploads directory must be writable.
	tmpPath := filepath.Join(cfg.Data.Uploads, ".healthcheck")
	if err := os.WriteFile(tmpPath, []byte("ok"), 0o644); err != nil {
		checks["uploads_dir"] = map[string]any{"ok": false, "error": err.Error()}
		allOK = false
	} else {
		os.Remove(tmpPath)
		checks["uploads_dir"] = map[string]any{"ok": true, "path": cfg.Data.Uploads}
	}

	// Generation backend credentials, unless simulating.
	if cfg.GenAI.Simulate {
		checks["genai"] = map[string]any{"ok": true, "mode": "simulated"}
	} else if cfg.GenAI.APIKey() == "" {
		checks["genai"] = map[string]any{"ok": false, "error": "no API key in $" + cfg.GenAI.APIKeyEnv}
		allOK = false
	} else {
		checks["genai"] = map[string]any{"ok": true, "mode": "live"}
	}

	// Config file readable.
	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); err != nil {
			checks["config_file"] = map[string]any{"ok": false, "error": err.Error()}
			allOK = false
		} else {
			checks["config_file"] = map[string]any{"ok": true, "path": a.configPath}
		}
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

// handleUpload accepts a multipart plan image plus a style label, persists
// the original under a generated name, and starts one detached pipeline run.
// The response returns immediately; progress arrives on the stream.
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		jsonError(w, "file must be an image", http.StatusBadRequest)
		return
	}

	style := r.FormValue("style")
	if style == "" {
		jsonError(w, "style field required", http.StatusBadRequest)
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "reading upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Save the original for later retrieval under /uploads/.
	cfg := a.getConfig()
	filename := uuid.NewString() + filepath.Ext(header.Filename)
	if err := os.WriteFile(filepath.Join(cfg.Data.Uploads, filename), contents, 0o644); err != nil {
		jsonError(w, "persisting upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	a.transition("GENERATING")
	a.stats.recordStart()
	run := a.runner.Start(a.runCtx, cfg, contents, style, filename)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":  "File uploaded successfully - processing started",
		"filename": filename,
		"file_url": "/uploads/" + filename,
		"run_id":   run.ID,
	})
}

// handleUploads serves uploaded originals back by generated filename.
func (a *App) handleUploads(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/uploads/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(a.getConfig().Data.Uploads, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	cfg := a.getConfig()

	mode := "live"
	if cfg.GenAI.Simulate || cfg.GenAI.APIKey() == "" {
		mode = "simulated"
	}

	resp := map[string]any{
		"name":           "floorplan-engine",
		"state":          a.state.Load().(string),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"uploads_dir":    cfg.Data.Uploads,
		"mode":           mode,
		"active_runs":    a.runner.Active(),
		"viewers":        a.bus.SubscriberCount() - 1, // minus the daemon's own tap
	}

	if du := diskUsage(cfg.Data.Uploads); du != nil {
		resp["disk"] = du
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"version":    Version,
		"go_version": GoVersion,
		"built_at":   BuiltAt,
	})
}

func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.getConfig())
}

func (a *App) handleConfigProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles, err := config.ListProfiles(config.DefaultConfigDir())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []config.ProfileInfo{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"config_dir": config.DefaultConfigDir(),
		"profiles":   profiles,
	})
}

func (a *App) handleRuns(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"runs": a.runner.Runs()})
}

func (a *App) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := a.events.snapshot()

	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" {
		var filtered []logEntry
		for _, e := range entries {
			if e.Type == typeFilter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	runFilter := r.URL.Query().Get("run")
	if runFilter != "" {
		var filtered []logEntry
		for _, e := range entries {
			if e.RunID == runFilter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	if entries == nil {
		entries = []logEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"logs": entries})
}

func (a *App) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := a.stats.snapshot()
	resp["uptime_seconds"] = int64(time.Since(a.startedAt).Seconds())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Accept optional profile name in body: {"profile": "studio"}
	var body struct {
		Profile string `json:"profile"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	loadPath := a.configPath
	if body.Profile != "" {
		candidate := filepath.Join(config.DefaultConfigDir(), body.Profile+".toml")
		if _, err := os.Stat(candidate); err != nil {
			jsonError(w, fmt.Sprintf("profile %q not found at %s", body.Profile, candidate), http.StatusNotFound)
			return
		}
		loadPath = candidate
	}

	if loadPath == "" {
		jsonError(w, "no config file path set", http.StatusInternalServerError)
		return
	}

	newCfg, err := config.Load(loadPath)
	if err != nil {
		jsonError(w, "config reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	a.cfgMu.Lock()
	a.cfg = newCfg
	a.configPath = loadPath
	a.cfgMu.Unlock()

	a.log.Printf("config reloaded from %s (generation backend unchanged until restart)", loadPath)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"message": "configuration reloaded from " + loadPath,
	})
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}
