package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LuisBackhaus/floorplan-engine/internal/config"
	"github.com/LuisBackhaus/floorplan-engine/internal/genai"
	"github.com/LuisBackhaus/floorplan-engine/internal/stream"
)

// newTestApp builds an App with a temp uploads dir and the simulated
// backend, ready to serve handler requests without Run.
func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Data.Uploads = t.TempDir()
	cfg.GenAI.Simulate = true

	a := New(Options{
		Logger:    log.New(io.Discard, "", 0),
		Cfg:       cfg,
		Generator: &genai.Simulated{},
	})
	a.runCtx = context.Background()
	a.transition("IDLE")
	return a
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("response does not decode: %v", err)
	}
}

// multipartUpload builds a multipart body with one file part of the given
// content type plus optional form fields.
func multipartUpload(t *testing.T, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("creating file part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("writing file part: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func planPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.SetRGBA(x, y, color.RGBA{0xee, 0xee, 0xee, 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding plan fixture: %v", err)
	}
	return buf.Bytes()
}

// waitIdle polls until all runs have finished.
func waitIdle(t *testing.T, a *App) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for a.runner.Active() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("runs never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestRoot verifies the API banner and 404 behavior for unknown paths.
func TestRoot(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleRoot(rec, httptest.NewRequest("GET", "/", nil))
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["message"] != "Floorplan Generation API" {
		t.Errorf("unexpected banner: %v", body)
	}

	rec = httptest.NewRecorder()
	a.handleRoot(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}

// TestUploadStartsRun verifies a valid upload persists the plan, starts a
// run, and reports the stored file URL.
func TestUploadStartsRun(t *testing.T) {
	a := newTestApp(t)

	body, ct := multipartUpload(t, "plan.png", "image/png", planPNG(t), map[string]string{"style": "modern"})
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := httptest.NewRecorder()
	a.handleUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Filename string `json:"filename"`
		FileURL  string `json:"file_url"`
		RunID    string `json:"run_id"`
	}
	decodeBody(t, rec, &resp)
	if resp.RunID == "" {
		t.Error("no run ID returned")
	}
	if filepath.Ext(resp.Filename) != ".png" {
		t.Errorf("stored name should keep the extension: %q", resp.Filename)
	}

	// The original is persisted and served back.
	saved := filepath.Join(a.getConfig().Data.Uploads, resp.Filename)
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("upload not persisted: %v", err)
	}
	rec = httptest.NewRecorder()
	a.handleUploads(rec, httptest.NewRequest("GET", resp.FileURL, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("stored plan not served: %d", rec.Code)
	}

	waitIdle(t, a)

	// The run shows up in the listing as complete.
	rec = httptest.NewRecorder()
	a.handleRuns(rec, httptest.NewRequest("GET", "/api/runs", nil))
	var runsResp struct {
		Runs []struct {
			ID    string `json:"id"`
			State string `json:"state"`
		} `json:"runs"`
	}
	decodeBody(t, rec, &runsResp)
	if len(runsResp.Runs) != 1 || runsResp.Runs[0].ID != resp.RunID {
		t.Fatalf("run missing from listing: %+v", runsResp)
	}
	if runsResp.Runs[0].State != "complete" {
		t.Errorf("run state %q, expected complete", runsResp.Runs[0].State)
	}
}

// TestUploadRejectsNonImage verifies the content-type gate.
func TestUploadRejectsNonImage(t *testing.T) {
	a := newTestApp(t)

	body, ct := multipartUpload(t, "notes.txt", "text/plain", []byte("hello"), map[string]string{"style": "modern"})
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := httptest.NewRecorder()
	a.handleUpload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for text upload, got %d", rec.Code)
	}
	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.OK || resp.Error == "" {
		t.Errorf("expected a JSON error body, got %+v", resp)
	}
}

// TestUploadRequiresStyle verifies a missing style field is rejected.
func TestUploadRequiresStyle(t *testing.T) {
	a := newTestApp(t)

	body, ct := multipartUpload(t, "plan.png", "image/png", planPNG(t), nil)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := httptest.NewRecorder()
	a.handleUpload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without style, got %d", rec.Code)
	}
}

// TestUploadMethodGate verifies only POST is accepted.
func TestUploadMethodGate(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.handleUpload(rec, httptest.NewRequest("GET", "/upload", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}
}

// TestUploadsTraversalGuard verifies path traversal and nesting are refused.
func TestUploadsTraversalGuard(t *testing.T) {
	a := newTestApp(t)

	for _, path := range []string{
		"/uploads/",
		"/uploads/../config.toml",
		"/uploads/nested/file.png",
	} {
		req := httptest.NewRequest("GET", "/uploads/x", nil)
		req.URL.Path = path
		rec := httptest.NewRecorder()
		a.handleUploads(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

// TestStatusEndpoint verifies the status document's core fields.
func TestStatusEndpoint(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleStatus(rec, httptest.NewRequest("GET", "/api/status", nil))

	var resp struct {
		Name       string `json:"name"`
		State      string `json:"state"`
		Mode       string `json:"mode"`
		ActiveRuns int    `json:"active_runs"`
	}
	decodeBody(t, rec, &resp)
	if resp.Name != "floorplan-engine" {
		t.Errorf("unexpected name %q", resp.Name)
	}
	if resp.State != "IDLE" {
		t.Errorf("unexpected state %q", resp.State)
	}
	if resp.Mode != "simulated" {
		t.Errorf("expected simulated mode, got %q", resp.Mode)
	}
	if resp.ActiveRuns != 0 {
		t.Errorf("expected 0 active runs, got %d", resp.ActiveRuns)
	}
}

// TestHealthz verifies both the plain and the detailed health forms.
func TestHealthz(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleHealthz(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("plain healthz: %d %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	a.handleHealthz(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("detailed healthz returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Healthy bool           `json:"healthy"`
		Checks  map[string]any `json:"checks"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Healthy {
		t.Errorf("expected healthy, got %+v", resp)
	}
	if _, ok := resp.Checks["uploads_dir"]; !ok {
		t.Error("uploads_dir check missing")
	}
	if _, ok := resp.Checks["genai"]; !ok {
		t.Error("genai check missing")
	}
}

// TestLogsFilters verifies the type, run, and limit query parameters.
func TestLogsFilters(t *testing.T) {
	a := newTestApp(t)

	a.events.add(stream.NewEnvelope("run-a", stream.EventStatus, map[string]any{"message": "one"}))
	a.events.add(stream.NewEnvelope("run-a", stream.EventRoomDetected, map[string]any{"name": "Kitchen"}))
	a.events.add(stream.NewEnvelope("run-b", stream.EventStatus, map[string]any{"message": "two"}))

	fetch := func(query string) []logEntry {
		rec := httptest.NewRecorder()
		a.handleLogs(rec, httptest.NewRequest("GET", "/api/logs"+query, nil))
		var resp struct {
			Logs []logEntry `json:"logs"`
		}
		decodeBody(t, rec, &resp)
		return resp.Logs
	}

	if got := fetch(""); len(got) != 3 {
		t.Errorf("expected 3 entries unfiltered, got %d", len(got))
	}
	if got := fetch("?type=status"); len(got) != 2 {
		t.Errorf("expected 2 status entries, got %d", len(got))
	}
	if got := fetch("?run=run-b"); len(got) != 1 {
		t.Errorf("expected 1 entry for run-b, got %d", len(got))
	}
	if got := fetch("?limit=1"); len(got) != 1 {
		t.Errorf("expected limit to trim to 1, got %d", len(got))
	}
}

// TestReload verifies config reload from disk and the method gate.
func TestReload(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleReload(rec, httptest.NewRequest("GET", "/api/reload", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}

	path := filepath.Join(t.TempDir(), "floorplan.toml")
	content := "[pipeline]\nexpand_percent = 25\n\n[data]\nuploads = " +
		`"` + a.getConfig().Data.Uploads + `"` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	a.configPath = path

	rec = httptest.NewRecorder()
	a.handleReload(rec, httptest.NewRequest("POST", "/api/reload", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reload returned %d: %s", rec.Code, rec.Body.String())
	}
	if got := a.getConfig().Pipeline.ExpandPercent; got != 25 {
		t.Errorf("reload did not take effect: expand_percent=%d", got)
	}
}

// TestStatsAfterRun verifies aggregate counters reflect a finished run.
func TestStatsAfterRun(t *testing.T) {
	a := newTestApp(t)

	body, ct := multipartUpload(t, "plan.png", "image/png", planPNG(t), map[string]string{"style": "modern"})
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	a.handleUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload returned %d", rec.Code)
	}
	waitIdle(t, a)

	rec = httptest.NewRecorder()
	a.handleStats(rec, httptest.NewRequest("GET", "/api/stats", nil))
	var resp struct {
		TotalRuns     int `json:"total_runs"`
		CompletedRuns int `json:"completed_runs"`
		FailedRuns    int `json:"failed_runs"`
		RoomsDetected int `json:"rooms_detected"`
	}
	decodeBody(t, rec, &resp)
	if resp.TotalRuns != 1 || resp.CompletedRuns != 1 || resp.FailedRuns != 0 {
		t.Errorf("unexpected counters: %+v", resp)
	}
	if resp.RoomsDetected != 3 {
		t.Errorf("expected 3 rooms detected, got %d", resp.RoomsDetected)
	}
}
