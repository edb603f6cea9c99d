package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the transcription-correction
// pipeline, populated from environment variables (with struct defaults) and
// then overridden by any CLI flags passed in Overrides.
type Config struct {
	// StorePath is the filesystem path to the SQLite job store.
	StorePath string `env:"STORE_PATH" envDefault:"./data/jobs.db"`

	// UploadDir holds source audio uploads, addressed by Job.SourceAudioPath.
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./data/uploads"`

	// ClipDir is where the audio slicer writes temporary correction clips.
	ClipDir string `env:"CLIP_DIR" envDefault:"./data/clips"`

	// ASR is the first-pass, word-level transcription client.
	ASRURL     string        `env:"ASR_URL,required"`
	ASRModel   string        `env:"ASR_MODEL" envDefault:"whisper-1"`
	ASRTimeout time.Duration `env:"ASR_TIMEOUT" envDefault:"60s"`

	// Multimodal is the second-pass, audio-language correction client.
	MultimodalURL     string        `env:"MULTIMODAL_URL,required"`
	MultimodalModel   string        `env:"MULTIMODAL_MODEL" envDefault:"gpt-4o-audio-preview"`
	MultimodalAPIKey  string        `env:"MULTIMODAL_API_KEY"`
	MultimodalTimeout time.Duration `env:"MULTIMODAL_TIMEOUT" envDefault:"30s"`

	// FFmpegPath locates the ffmpeg binary used to slice correction clips.
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	// Pipeline tuning parameters — see the clustering and reconciliation design.
	// CLUSTERING_PROXIMITY_SECONDS and CORRECTION_WINDOW_SECONDS are parsed as
	// Go duration strings ("5s", "20s"); a bare number such as "5" is rejected.
	// HallucinationRatio is loaded but nothing reads it: reconcile.Evaluate
	// always applies its own fixed ratio of 0.70.
	ConfidenceThreshold     float64       `env:"CONFIDENCE_THRESHOLD" envDefault:"0.60"`
	ClusteringProximity     time.Duration `env:"CLUSTERING_PROXIMITY_SECONDS" envDefault:"5s"`
	CorrectionWindowSeconds time.Duration `env:"CORRECTION_WINDOW_SECONDS" envDefault:"20s"`
	HallucinationRatio      float64       `env:"HALLUCINATION_RATIO" envDefault:"0.70"`

	// WorkerPollIntervalMS governs how often an idle worker checks for pending
	// jobs, in milliseconds. A bare integer, not a time.Duration string —
	// env.Parse would otherwise feed caarlos0/env's time.ParseDuration a
	// unitless "3000" and fail. Use WorkerPollInterval() to consume it.
	WorkerPollIntervalMS int `env:"WORKER_POLL_INTERVAL_MS" envDefault:"3000"`

	// StaleProcessingSweep, when > 0, moves jobs stuck in PROCESSING longer than
	// this duration back to PENDING at worker startup. Zero disables the sweep.
	StaleProcessingSweep time.Duration `env:"STALE_PROCESSING_SWEEP" envDefault:"0"`

	// WebhookURL, when set, receives job lifecycle notifications.
	WebhookURL string `env:"WEBHOOK_URL"`

	// MetricsAddr is the listen address for the /metrics and /healthz endpoints.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	StorePath     string
	UploadDir     string
	ASRURL        string
	MultimodalURL string
	LogLevel      string
	MetricsAddr   string
}

// Load reads configuration from a .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file > struct
// defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.StorePath != "" {
		cfg.StorePath = overrides.StorePath
	}
	if overrides.UploadDir != "" {
		cfg.UploadDir = overrides.UploadDir
	}
	if overrides.ASRURL != "" {
		cfg.ASRURL = overrides.ASRURL
	}
	if overrides.MultimodalURL != "" {
		cfg.MultimodalURL = overrides.MultimodalURL
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.MetricsAddr != "" {
		cfg.MetricsAddr = overrides.MetricsAddr
	}

	return cfg, nil
}

// WorkerPollInterval converts WorkerPollIntervalMS to a time.Duration for
// use by the worker's poll loop.
func (c *Config) WorkerPollInterval() time.Duration {
	return time.Duration(c.WorkerPollIntervalMS) * time.Millisecond
}
