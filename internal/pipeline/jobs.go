package pipeline

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/manualgen/internal/plan"
)

// JobStatus represents the state of a render job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusValidating  JobStatus = "validating"
	StatusStyling     JobStatus = "styling"
	StatusFetching    JobStatus = "fetching"
	StatusEmitting    JobStatus = "emitting"
	StatusSerializing JobStatus = "serializing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Artifact describes a written document.
type Artifact struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Job tracks the state of a single render.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// OutputPath is where the artifact is written; StagingDir receives
	// fetched assets. Both are private to the job.
	OutputPath string `json:"-"`
	StagingDir string `json:"-"`

	// Internal: not serialized.
	plan     *plan.Plan
	artifact *Artifact
	errors   []string
}

// Progress tracks render progress.
type Progress struct {
	Sections      int      `json:"sections"`
	Blocks        int      `json:"blocks"`
	AssetsTotal   int      `json:"assets_total"`
	AssetsFetched int      `json:"assets_fetched"`
	Errors        []string `json:"errors"`
}

// NewJob returns a queued job for p.
func NewJob(p *plan.Plan, filename, outputPath, stagingDir string) *Job {
	now := time.Now()
	j := &Job{
		ID:         NewJobID(),
		Status:     StatusQueued,
		Phase:      "queued",
		Filename:   filename,
		Title:      p.Title,
		CreatedAt:  now,
		UpdatedAt:  now,
		OutputPath: outputPath,
		StagingDir: stagingDir,
		plan:       p,
	}
	j.Progress.Sections = len(p.Sections)
	for _, s := range p.Sections {
		j.Progress.Blocks += len(s.Blocks)
	}
	j.Progress.AssetsTotal = len(p.Assets)
	return j
}

// Plan returns the plan the job renders.
func (j *Job) Plan() *plan.Plan {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.plan
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs along with their artifacts and staging
// directories. It returns the number of jobs evicted.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	now := time.Now()
	var expired []*Job
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			expired = append(expired, job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		if job.OutputPath != "" {
			os.Remove(job.OutputPath)
		}
		if job.StagingDir != "" {
			os.RemoveAll(job.StagingDir)
		}
	}
	return len(expired)
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetAssetsFetched records how many assets were staged.
func (j *Job) SetAssetsFetched(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.AssetsFetched = n
	j.UpdatedAt = time.Now()
}

// Complete records the artifact and marks the job completed.
func (j *Job) Complete(a *Artifact) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.artifact = a
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Artifact returns the written artifact, or nil until the job completes.
func (j *Job) Artifact() *Artifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.artifact
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Progress  Progress  `json:"progress"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	var art *Artifact
	if j.artifact != nil {
		a := *j.artifact
		art = &a
	}
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Progress:  p,
		Artifact:  art,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
