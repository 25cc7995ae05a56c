package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/manualgen/internal/config"
	"github.com/dgallion1/manualgen/internal/plan"
)

// Orchestrator runs render jobs on a bounded worker pool. Every job gets
// its own staging and artifact directories so concurrent renders never
// share a path.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	runner *Runner
	stats  *RenderStats
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, runner *Runner, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		runner: runner,
		stats:  NewRenderStats(time.Hour),
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Info("expired jobs removed", "count", n)
				}
			}
		}
	}()
}

func (o *Orchestrator) process(ctx context.Context, job *Job) {
	start := time.Now()
	_, err := o.runner.Run(ctx, job)
	o.stats.Record(time.Since(start), err != nil)
	if job.StagingDir != "" {
		os.RemoveAll(job.StagingDir)
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a render of p. The artifact is written as filename inside
// a directory private to the job.
func (o *Orchestrator) Submit(p *plan.Plan, filename string) (*Job, error) {
	job := NewJob(p, artifactName(filename), "", "")
	job.OutputPath = filepath.Join(o.cfg.ArtifactDir, job.ID, job.Filename)
	job.StagingDir = filepath.Join(o.cfg.StagingDir, job.ID)

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return job, fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// artifactName reduces a requested name to a safe .docx file name.
func artifactName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	slug := plan.Slugify(base)
	if slug == "" {
		slug = "manual"
	}
	return slug + ".docx"
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the render duration statistics.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}
