package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/snarg/audio-correct/internal/asr"
	"github.com/snarg/audio-correct/internal/clustering"
	"github.com/snarg/audio-correct/internal/config"
	"github.com/snarg/audio-correct/internal/metrics"
	"github.com/snarg/audio-correct/internal/multimodal"
	"github.com/snarg/audio-correct/internal/notify"
	"github.com/snarg/audio-correct/internal/slicer"
	"github.com/snarg/audio-correct/internal/statusserver"
	"github.com/snarg/audio-correct/internal/storage"
	"github.com/snarg/audio-correct/internal/store"
	"github.com/snarg/audio-correct/internal/worker"
)

var version = "dev"

func main() {
	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file (default: .env)")
	flag.StringVar(&overrides.StorePath, "store-path", "", "override STORE_PATH")
	flag.StringVar(&overrides.UploadDir, "upload-dir", "", "override UPLOAD_DIR")
	flag.StringVar(&overrides.ASRURL, "asr-url", "", "override ASR_URL")
	flag.StringVar(&overrides.MultimodalURL, "multimodal-url", "", "override MULTIMODAL_URL")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "override LOG_LEVEL")
	flag.StringVar(&overrides.MetricsAddr, "metrics-addr", "", "override METRICS_ADDR")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("audio-correct starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	if cfg.StaleProcessingSweep > 0 {
		reaped, err := st.ReapStaleProcessing(ctx, cfg.StaleProcessingSweep)
		if err != nil {
			log.Warn().Err(err).Msg("stale processing sweep failed")
		} else if reaped > 0 {
			log.Info().Int("count", reaped).Msg("reset stale PROCESSING jobs to PENDING")
		}
	}

	prometheus.MustRegister(metrics.NewCollector(st))

	asrClient := asr.New(cfg.ASRURL, cfg.ASRModel, cfg.ASRTimeout)
	multimodalClient := multimodal.New(cfg.MultimodalURL, cfg.MultimodalModel, cfg.MultimodalAPIKey, cfg.MultimodalTimeout)
	audioSlicer := slicer.New(cfg.FFmpegPath, cfg.ClipDir)

	if !slicer.CheckFFmpeg(cfg.FFmpegPath) {
		log.Warn().Str("ffmpeg_path", cfg.FFmpegPath).Msg("ffmpeg not found in PATH; clip slicing will fail for every job")
	}

	notifyLog := log.With().Str("component", "notify").Logger()
	notifier := notify.NewWebhookNotifier(cfg.WebhookURL, notifyLog)

	audioStore := storage.New(cfg.UploadDir)

	w := worker.New(worker.Options{
		Store:      st,
		ASR:        asrClient,
		Multimodal: multimodalClient,
		Slicer:     audioSlicer,
		Notifier:   notifier,
		Audio:      audioStore,
		ClusteringParams: clustering.Params{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			ProximityThreshold:  cfg.ClusteringProximity.Seconds(),
			CorrectionWindow:    cfg.CorrectionWindowSeconds.Seconds(),
		},
		PollInterval: cfg.WorkerPollInterval(),
		Log:          log,
	})
	w.Start(ctx)

	statusLog := log.With().Str("component", "statusserver").Logger()
	srv := statusserver.New(cfg.MetricsAddr, st, version, statusLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("status server error")
		}
	}

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status server shutdown error")
	}

	log.Info().Msg("audio-correct stopped")
}
