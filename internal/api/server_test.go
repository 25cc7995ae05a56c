package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/manualgen/internal/config"
	"github.com/dgallion1/manualgen/internal/fetch"
	"github.com/dgallion1/manualgen/internal/pipeline"
	"github.com/dgallion1/manualgen/internal/style"
)

const testKey = "secret"

const planJSON = `{"title":"API Manual","sections":[{"title":"One","blocks":[{"kind":"paragraph","text":"hello"}]}]}`

func newTestServer(t *testing.T, start bool) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:           testKey,
		StagingDir:       t.TempDir(),
		ArtifactDir:      t.TempDir(),
		CreateParentDirs: true,
		PageSize:         "a4",
		WorkerCount:      1,
		MaxQueueSize:     4,
		MaxUploadBytes:   1 << 20,
		JobTTL:           time.Hour,
	}
	runner, err := pipeline.NewRunner(style.Default(), fetch.NewClient(time.Second, 0), log, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orch := pipeline.NewOrchestrator(cfg, runner, log)
	if start {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	srv := httptest.NewServer(NewServer(orch, log, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func submit(t *testing.T, srv *httptest.Server, contentType string, body io.Reader) map[string]any {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/render", contentType, body)
	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, msg)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func waitForStatus(t *testing.T, srv *httptest.Server, jobID string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp := do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/status", "", nil)
		var snap pipeline.JobSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s still %s", jobID, snap.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestHealth_Public(t *testing.T) {
	srv := newTestServer(t, false)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuth_Rejects(t *testing.T) {
	srv := newTestServer(t, false)
	tests := []struct {
		name string
		auth string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/stats/render", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestRender_PlanBodyToArtifact(t *testing.T) {
	srv := newTestServer(t, true)
	out := submit(t, srv, "application/json", strings.NewReader(planJSON))

	jobID, _ := out["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected job_id in %v", out)
	}
	if out["filename"] != "api-manual.docx" {
		t.Errorf("expected filename %q, got %v", "api-manual.docx", out["filename"])
	}

	snap := waitForStatus(t, srv, jobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s: %v", snap.Status, snap.Progress.Errors)
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/render/"+jobID+"/artifact", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != docxContentType {
		t.Errorf("expected content type %q, got %q", docxContentType, ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("expected a zip package, got %q", data[:min(len(data), 8)])
	}
	if int64(len(data)) != snap.Artifact.Size {
		t.Errorf("expected %d bytes, got %d", snap.Artifact.Size, len(data))
	}

	// Stats are recorded just after the job reports completion.
	deadline := time.Now().Add(5 * time.Second)
	for {
		stats := do(t, http.MethodGet, srv.URL+"/api/stats/render", "", nil)
		var body struct {
			Stats pipeline.StatsSnapshot `json:"stats"`
		}
		if err := json.NewDecoder(stats.Body).Decode(&body); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body.Stats.Count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected one recorded render, got %d", body.Stats.Count)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRender_MultipartMarkdown(t *testing.T) {
	srv := newTestServer(t, true)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "guide.md")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "# Guide\n\n## Setup\n\n- one\n- two\n")
	mw.WriteField("filename", "Field Guide")
	mw.Close()

	out := submit(t, srv, mw.FormDataContentType(), &buf)
	if out["filename"] != "field-guide.docx" {
		t.Errorf("expected filename %q, got %v", "field-guide.docx", out["filename"])
	}
	snap := waitForStatus(t, srv, out["job_id"].(string))
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s: %v", snap.Status, snap.Progress.Errors)
	}
	if snap.Title != "Guide" || snap.Progress.Sections != 1 || snap.Progress.Blocks != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRender_ArtifactBeforeCompletion(t *testing.T) {
	srv := newTestServer(t, false)
	out := submit(t, srv, "application/yaml", strings.NewReader("title: Pending\n"))

	resp := do(t, http.MethodGet, srv.URL+"/api/render/"+out["job_id"].(string)+"/artifact", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRender_BadRequests(t *testing.T) {
	srv := newTestServer(t, false)

	upload := func(name string) (string, io.Reader) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("file", name)
		io.WriteString(fw, "data")
		mw.Close()
		return mw.FormDataContentType(), &buf
	}
	exeType, exeBody := upload("tool.exe")

	tests := []struct {
		name        string
		contentType string
		body        io.Reader
		want        int
	}{
		{"unknown field", "application/json", strings.NewReader(`{"title":"T","colour":"red"}`), http.StatusBadRequest},
		{"empty body", "application/json", strings.NewReader(""), http.StatusBadRequest},
		{"invalid block", "application/yaml", strings.NewReader("title: T\nsections:\n- title: S\n  blocks:\n  - kind: table\n"), http.StatusBadRequest},
		{"unsupported media", "text/plain", strings.NewReader("hello"), http.StatusUnsupportedMediaType},
		{"unsupported upload", exeType, exeBody, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/api/render", tt.contentType, tt.body)
			if resp.StatusCode != tt.want {
				msg, _ := io.ReadAll(resp.Body)
				t.Errorf("expected %d, got %d: %s", tt.want, resp.StatusCode, msg)
			}
		})
	}
}

func TestRender_UnknownJob(t *testing.T) {
	srv := newTestServer(t, false)
	for _, path := range []string{"/status", "/artifact"} {
		resp := do(t, http.MethodGet, srv.URL+"/api/render/nope"+path, "", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"guide.md":         "guide.md",
		"../../etc/passwd": "passwd",
		"dir\\evil..md":    "dir_evil_md",
		"":                 "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
