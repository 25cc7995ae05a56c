package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPlan = `title: CLI Manual
subtitles: [Quick Reference]
toc:
  title: Contents
sections:
- title: Install
  blocks:
  - kind: paragraph
    text: Copy the binary.
  - kind: list_item
    list: number
    text: Download
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_PlanFile(t *testing.T) {
	dir := t.TempDir()
	planPath := writeFile(t, dir, "plan.yaml", testPlan)
	out := filepath.Join(dir, "nested", "cli.docx")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--plan", planPath, "--out", out, "--staging-dir", filepath.Join(dir, "staging")}, &stdout, &stderr)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d: %s", ExitSuccess, code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != out {
		t.Errorf("expected %q on stdout, got %q", out, stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected a zip package")
	}
	if !strings.Contains(stderr.String(), "render complete") {
		t.Errorf("expected progress logs, got %q", stderr.String())
	}
}

func TestRun_MarkdownInput(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "notes.md", "# Notes\n\n## Usage\n\nRun it.\n")
	out := filepath.Join(dir, "notes.docx")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--plan", src, "-o", out, "--staging-dir", dir, "--log-format", "json"}, &stdout, &stderr)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d: %s", ExitSuccess, code, stderr.String())
	}
	if !strings.Contains(stderr.String(), `"msg":"plan loaded"`) {
		t.Errorf("expected json logs, got %q", stderr.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--colour"}},
		{"extra argument", []string{"plan.yaml"}},
		{"bad page size", []string{"--page-size", "a3"}},
		{"bad log format", []string{"--log-format", "xml"}},
		{"empty output", []string{"--out", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != ExitUsage {
				t.Errorf("expected exit %d, got %d", ExitUsage, code)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--help"}, &stdout, &stderr); code != ExitSuccess {
		t.Errorf("expected exit %d, got %d", ExitSuccess, code)
	}
	for _, want := range []string{"--plan", ".docx", ".md", ".yaml"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("expected usage text to mention %s, got %q", want, stderr.String())
		}
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	planPath := writeFile(t, dir, "plan.yaml", testPlan)
	tests := []struct {
		name string
		args []string
	}{
		{"missing plan", []string{"--plan", filepath.Join(dir, "nope.yaml"), "--out", filepath.Join(dir, "a.docx")}},
		{"unsupported plan", []string{"--plan", filepath.Join(dir, "plan.exe"), "--out", filepath.Join(dir, "a.docx")}},
		{"missing parent", []string{"--plan", planPath, "--no-create-dirs", "--out", filepath.Join(dir, "missing", "a.docx")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			args := append(tt.args, "--staging-dir", dir)
			if code := run(context.Background(), args, &stdout, &stderr); code != ExitGeneral {
				t.Errorf("expected exit %d, got %d: %s", ExitGeneral, code, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("expected no output path, got %q", stdout.String())
			}
		})
	}
}
