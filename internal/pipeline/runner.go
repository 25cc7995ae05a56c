package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/manualgen/internal/builder"
	"github.com/dgallion1/manualgen/internal/config"
	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/sink"
	"github.com/dgallion1/manualgen/internal/style"
)

// AssetStager stages a plan's remote assets into a directory and returns
// the local path of each by name.
type AssetStager interface {
	StageAll(ctx context.Context, assets []plan.Asset, dir string) (map[string]string, error)
}

// Runner renders one job at a time: validate, style, fetch, emit,
// serialize, write. Phases never overlap and any failure other than a
// style registration aborts the run.
type Runner struct {
	sheetDefs []style.Def
	fetcher   AssetStager
	log       *slog.Logger
	cfg       config.Config
	page      builder.PageSize
}

// NewRunner returns a runner that builds its sheet from defs.
func NewRunner(defs []style.Def, fetcher AssetStager, log *slog.Logger, cfg config.Config) (*Runner, error) {
	page, err := builder.ParsePageSize(strings.ToLower(cfg.PageSize))
	if err != nil {
		return nil, err
	}
	return &Runner{
		sheetDefs: defs,
		fetcher:   fetcher,
		log:       log,
		cfg:       cfg,
		page:      page,
	}, nil
}

// Run renders the job's plan to job.OutputPath. On failure the error is
// one of *FetchError, *EmissionError or *SerializationError and nothing
// is written.
func (r *Runner) Run(ctx context.Context, job *Job) (*Artifact, error) {
	log := r.log.With("job_id", job.ID)
	start := time.Now()
	p := job.Plan()

	fail := func(phase string, err error) (*Artifact, error) {
		log.Error("render failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phase)
		return nil, err
	}

	// Phase 1: Validate
	job.SetStatus(StatusValidating, "validating")
	if err := plan.Validate(p); err != nil {
		return fail("validating", &EmissionError{Err: err})
	}

	// Phase 2: Styles. Rejected definitions fall back inside Build.
	job.SetStatus(StatusStyling, "styling")
	sheet := style.Build(r.sheetDefs, log)

	// Phase 3: Fetch every asset before anything is emitted.
	job.SetStatus(StatusFetching, "fetching")
	staged, err := r.fetcher.StageAll(ctx, p.Assets, job.StagingDir)
	if err != nil {
		return fail("fetching", &FetchError{Err: err})
	}
	job.SetAssetsFetched(len(staged))
	log.Info("assets staged", "count", len(staged))

	// Phase 4: Emit
	job.SetStatus(StatusEmitting, "emitting")
	b := builder.New(sheet, log)
	b.Page = r.page
	doc, err := b.Build(ctx, p, staged)
	if err != nil {
		return fail("emitting", &EmissionError{Err: err})
	}

	// Phase 5: Serialize and write all-or-nothing.
	job.SetStatus(StatusSerializing, "serializing")
	data, err := builder.Serialize(doc)
	if err != nil {
		return fail("serializing", &SerializationError{Path: job.OutputPath, Err: err})
	}
	if err := sink.Write(job.OutputPath, data, sink.Options{CreateDirs: r.cfg.CreateParentDirs}); err != nil {
		return fail("serializing", &SerializationError{Path: job.OutputPath, Err: err})
	}

	art := &Artifact{Path: job.OutputPath, Size: int64(len(data)), SHA256: ContentHashHex(data)}
	job.Complete(art)
	log.Info("render complete",
		"path", art.Path,
		"bytes", art.Size,
		"sections", len(p.Sections),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return art, nil
}
