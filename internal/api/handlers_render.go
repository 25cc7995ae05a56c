package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/manualgen/internal/parser"
	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleRender accepts either a plan document (JSON or YAML) as the request
// body or a multipart upload of any importable file.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		p        *plan.Plan
		filename string
		status   int
		err      error
	)
	if mediaType == "multipart/form-data" {
		p, filename, status, err = s.readUpload(r)
	} else {
		p, filename, status, err = s.readPlanBody(r, mediaType)
	}
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	if err := plan.Validate(p); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.Submit(p, filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("render queued", "job_id", job.ID, "filename", job.Filename, "sections", len(p.Sections))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"filename": job.Filename,
		"poll_url": fmt.Sprintf("/api/render/%s/status", job.ID),
	})
}

func (s *Server) readPlanBody(r *http.Request, mediaType string) (*plan.Plan, string, int, error) {
	switch mediaType {
	case "application/json", "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml", "":
	default:
		return nil, "", http.StatusUnsupportedMediaType, fmt.Errorf("unsupported content type: %s", mediaType)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err)
	}
	p, err := parser.DecodePlan(data)
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	name := r.URL.Query().Get("filename")
	if name == "" {
		name = p.Title + ".docx"
	}
	return p, name, 0, nil
}

func (s *Server) readUpload(r *http.Request) (*plan.Plan, string, int, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, "", http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}

	prs, err := parser.ForFile(filename)
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	if pp, ok := prs.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}
	p, err := prs.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, "", http.StatusUnprocessableEntity, fmt.Errorf("import %s: %w", filename, err)
	}

	if name := r.FormValue("filename"); name != "" {
		filename = sanitizeFilename(name)
	}
	return p, filename, 0, nil
}

func (s *Server) handleRenderStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleRenderArtifact(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	art := job.Artifact()
	if art == nil {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("job is %s (%s)", snap.Status, snap.Phase), http.StatusConflict)
		return
	}

	f, err := os.Open(art.Path)
	if err != nil {
		jsonError(w, "artifact no longer available", http.StatusGone)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "artifact no longer available", http.StatusGone)
		return
	}

	name := filepath.Base(art.Path)
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("ETag", `"`+art.SHA256+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
