package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Artifacts
	OutputPath       string
	StagingDir       string
	ArtifactDir      string
	CreateParentDirs bool
	PageSize         string

	// Asset fetching
	FetchTimeout  time.Duration
	MaxAssetBytes int64

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF import
	PDFFallbackPdftotext bool
}

func Load() Config {
	tmp := os.TempDir()
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("MANUALGEN_API_KEY"),

		OutputPath:       envOr("OUTPUT_PATH", "manual.docx"),
		StagingDir:       envOr("STAGING_DIR", filepath.Join(tmp, "manualgen-staging")),
		ArtifactDir:      envOr("ARTIFACT_DIR", filepath.Join(tmp, "manualgen-artifacts")),
		CreateParentDirs: envBool("CREATE_PARENT_DIRS", true),
		PageSize:         envOr("PAGE_SIZE", "a4"),

		FetchTimeout:  envDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxAssetBytes: envInt64("MAX_ASSET_BYTES", 20971520), // 20MB

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxAssetBytes <= 0 {
		cfg.MaxAssetBytes = 20971520
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings every render needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		return fmt.Errorf("STAGING_DIR is required")
	}
	switch strings.ToLower(c.PageSize) {
	case "", "a4", "letter":
	default:
		return fmt.Errorf("PAGE_SIZE must be a4 or letter, got %q", c.PageSize)
	}
	return nil
}

// ValidateServer checks the additional settings of the render service.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("MANUALGEN_API_KEY is required")
	}
	if strings.TrimSpace(c.ArtifactDir) == "" {
		return fmt.Errorf("ARTIFACT_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
