package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/manualgen/internal/plan"
)

func TestFetch_WritesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "manualgen/") {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "arch.png")
	if err := os.WriteFile(dest, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewClient(time.Second, 0).Fetch(context.Background(), srv.URL+"/arch.png", dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dest {
		t.Errorf("expected %q, got %q", dest, got)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "PNGDATA" {
		t.Errorf("expected body to overwrite file, got %q", data)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("gone ", 500), http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "arch.png")
	_, err := NewClient(time.Second, 0).Fetch(context.Background(), srv.URL, dest)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", se.Code)
	}
	if len(se.Body) != 1024 {
		t.Errorf("expected body truncated to 1024 bytes, got %d", len(se.Body))
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected nothing staged, got %v", err)
	}
}

func TestFetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flush before writing so the length is not announced up front.
		w.(http.Flusher).Flush()
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "big.bin")
	_, err := NewClient(time.Second, 10).Fetch(context.Background(), srv.URL, dest)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected nothing staged, got %v", err)
	}
}

func TestFetch_DeclaredLengthTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	_, err := NewClient(time.Second, 10).Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "a"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(50*time.Millisecond, 0).Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "a"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetch_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewClient(time.Second, 0).Fetch(context.Background(), url, filepath.Join(t.TempDir(), "a")); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestStageAll_AbortsOnFirstFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/bad.png" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	assets := []plan.Asset{
		{Name: "first", URL: srv.URL + "/first.png"},
		{Name: "bad", URL: srv.URL + "/bad.png"},
		{Name: "never", URL: srv.URL + "/never.png"},
	}
	_, err := NewClient(time.Second, 0).StageAll(context.Background(), assets, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "asset bad") {
		t.Fatalf("expected failure on asset bad, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestStageAll_Paths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	staged, err := NewClient(time.Second, 0).StageAll(context.Background(), []plan.Asset{
		{Name: "architecture", URL: srv.URL + "/images/arch.PNG?v=2"},
		{Name: "raw", URL: srv.URL + "/download"},
	}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "architecture.png"); staged["architecture"] != want {
		t.Errorf("expected %q, got %q", want, staged["architecture"])
	}
	if want := filepath.Join(dir, "raw.bin"); staged["raw"] != want {
		t.Errorf("expected %q, got %q", want, staged["raw"])
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"https://x/a.png":         ".png",
		"https://x/a.JPEG":        ".jpeg",
		"https://x/a":             ".bin",
		"https://x/a.tar.gz":      ".gz",
		"https://x/a.verylongext": ".bin",
		"https://x/dir.d/file":    ".bin",
		"://bad":                  ".bin",
	}
	for in, want := range tests {
		if got := extension(in); got != want {
			t.Errorf("extension(%q): expected %q, got %q", in, want, got)
		}
	}
}
