// Package worker runs the single-threaded job pipeline: claim, first-pass
// ASR, clustering, per-window second-pass correction, merge, finalize.
package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/audio-correct/internal/asr"
	"github.com/snarg/audio-correct/internal/clustering"
	"github.com/snarg/audio-correct/internal/metrics"
	"github.com/snarg/audio-correct/internal/multimodal"
	"github.com/snarg/audio-correct/internal/notify"
	"github.com/snarg/audio-correct/internal/reconcile"
	"github.com/snarg/audio-correct/internal/slicer"
	"github.com/snarg/audio-correct/internal/storage"
	"github.com/snarg/audio-correct/internal/store"
)

// ASRClient is the first-pass recognizer dependency.
type ASRClient interface {
	Transcribe(ctx context.Context, audioPath string) (*asr.Response, error)
}

// MultimodalClient is the second-pass corrector dependency.
type MultimodalClient interface {
	Correct(ctx context.Context, clipPath string) (string, error)
}

// Slicer extracts clip windows from a source audio file.
type Slicer interface {
	Slice(ctx context.Context, inputPath string, start, end float64) (clipPath string, cleanup func(), err error)
}

// Store is the subset of *store.Store the worker depends on.
type Store interface {
	ClaimNextPending(ctx context.Context) (*store.Job, error)
	SaveSegments(ctx context.Context, jobID string, segments []store.Segment) error
	ListSegments(ctx context.Context, jobID string) ([]store.Segment, error)
	FindSegmentInRange(ctx context.Context, jobID string, start, end float64) (*store.Segment, error)
	SaveCorrection(ctx context.Context, c store.Correction) (int64, error)
	ClearCorrectionClipPath(ctx context.Context, correctionID int64) error
	FinalizeSuccess(ctx context.Context, jobID, transcript string) error
	FinalizeFailure(ctx context.Context, jobID, errMsg string) error
}

// Options configures a Worker.
type Options struct {
	Store      Store
	ASR        ASRClient
	Multimodal MultimodalClient
	Slicer     Slicer
	Notifier   notify.Notifier

	// Audio resolves a job's source audio path through the managed audio
	// directory. Nil falls back to using job.SourceAudioPath verbatim,
	// which keeps unit tests that never call storage.New working.
	Audio storage.AudioStore

	ClusteringParams clustering.Params
	PollInterval     time.Duration

	Log zerolog.Logger
}

// Worker is the single-threaded job pipeline orchestrator: at most one job
// runs at a time, polling the store between iterations.
type Worker struct {
	opts Options
	log  zerolog.Logger

	isProcessing atomic.Bool
	shouldStop   atomic.Bool

	wg sync.WaitGroup
}

// New creates a Worker. Call Start to begin the poll loop and Stop to
// gracefully shut it down.
func New(opts Options) *Worker {
	return &Worker{
		opts: opts,
		log:  opts.Log.With().Str("component", "worker").Logger(),
	}
}

// Start launches the poll loop in a background goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop requests graceful shutdown and blocks until the in-flight job (if
// any) finishes and the loop exits.
func (w *Worker) Stop() {
	w.shouldStop.Store(true)
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	poll := w.opts.PollInterval
	if poll <= 0 {
		poll = 3 * time.Second
	}

	for {
		if w.shouldStop.Load() {
			w.log.Info().Msg("worker stopping")
			return
		}

		w.isProcessing.Store(true)
		job, err := w.opts.Store.ClaimNextPending(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("claim next pending job")
		} else if job != nil {
			w.runPipeline(ctx, job)
		}
		w.isProcessing.Store(false)

		if w.shouldStop.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(poll):
		}
	}
}

// runPipeline executes the full per-job pipeline. Any error outside a
// per-window scope fails the whole job; per-window errors are isolated.
func (w *Worker) runPipeline(ctx context.Context, job *store.Job) {
	start := time.Now()
	log := w.log.With().Str("job_id", job.ID).Logger()
	metrics.JobsClaimedTotal.Inc()

	w.opts.Notifier.JobStarted(ctx, job.ID, job.OriginalFilename)

	applied, err := w.process(ctx, log, job)
	if err != nil {
		log.Warn().Err(err).Msg("job failed")
		if ferr := w.opts.Store.FinalizeFailure(ctx, job.ID, err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("finalize failure")
		}
		metrics.JobsFailedTotal.Inc()
		metrics.PipelineDurationSeconds.Observe(time.Since(start).Seconds())
		w.opts.Notifier.JobFailed(ctx, job.ID, job.OriginalFilename, err.Error())
		return
	}

	metrics.JobsCompletedTotal.Inc()
	duration := time.Since(start)
	metrics.PipelineDurationSeconds.Observe(duration.Seconds())
	w.opts.Notifier.JobCompleted(ctx, job.ID, job.OriginalFilename, duration, applied)
}

// resolveAudioPath maps a job's stored source path through the configured
// audio store, falling back to the raw path when no store is wired or the
// key isn't found under its managed directory.
func (w *Worker) resolveAudioPath(job *store.Job) string {
	if w.opts.Audio == nil {
		return job.SourceAudioPath
	}
	key := filepath.Base(job.SourceAudioPath)
	if p := w.opts.Audio.LocalPath(key); p != "" {
		return p
	}
	return job.SourceAudioPath
}

func (w *Worker) process(ctx context.Context, log zerolog.Logger, job *store.Job) (int, error) {
	audioPath := w.resolveAudioPath(job)

	asrResp, err := w.opts.ASR.Transcribe(ctx, audioPath)
	if err != nil {
		return 0, fmt.Errorf("first-pass asr: %w", err)
	}

	segments := make([]store.Segment, len(asrResp.Words))
	for i, word := range asrResp.Words {
		segments[i] = store.Segment{
			JobID:      job.ID,
			Word:       word.Word,
			Start:      word.Start,
			End:        word.End,
			Confidence: word.Probability,
		}
	}
	if err := w.opts.Store.SaveSegments(ctx, job.ID, segments); err != nil {
		return 0, fmt.Errorf("save segments: %w", err)
	}

	clusters := clustering.Run(asrResp.Words, w.opts.ClusteringParams)

	candidates := make([]reconcile.CorrectionCandidate, 0, len(clusters))
	applied := 0
	for _, cl := range clusters {
		candidate, ok := w.processWindow(ctx, log, job, audioPath, asrResp.Words, cl)
		if ok {
			candidates = append(candidates, candidate)
			if candidate.ShouldApply {
				applied++
			}
		}
	}

	merged := reconcile.Merge(asrResp.Words, candidates)

	if err := w.opts.Store.FinalizeSuccess(ctx, job.ID, merged.Text); err != nil {
		return 0, fmt.Errorf("finalize success: %w", err)
	}

	return applied, nil
}

// processWindow runs slice -> multimodal -> reconcile -> persist -> cleanup
// for a single cluster window. Failures are logged and isolated: the
// pipeline continues with the next window. The second return value reports
// whether a candidate was produced at all (false if the window's own call
// failed before reconciliation could run).
func (w *Worker) processWindow(ctx context.Context, log zerolog.Logger, job *store.Job, audioPath string, allWords []asr.Word, cl clustering.Cluster) (reconcile.CorrectionCandidate, bool) {
	windowLog := log.With().Float64("clip_start", cl.ClipStart).Float64("clip_end", cl.ClipEnd).Logger()

	clipPath, cleanup, err := w.opts.Slicer.Slice(ctx, audioPath, cl.ClipStart, cl.ClipEnd)
	if err != nil {
		windowLog.Warn().Err(err).Msg("clip slicing failed, skipping window")
		return reconcile.CorrectionCandidate{}, false
	}
	defer cleanup()

	correctedText, err := w.opts.Multimodal.Correct(ctx, clipPath)
	if err != nil {
		windowLog.Warn().Err(err).Msg("multimodal correction failed, skipping window")
		return reconcile.CorrectionCandidate{}, false
	}

	metrics.CorrectionsProposedTotal.Inc()
	eval := reconcile.Evaluate(allWords, correctedText, cl.ClipStart, cl.ClipEnd)

	seg, err := w.opts.Store.FindSegmentInRange(ctx, job.ID, cl.ClipStart, cl.ClipEnd)
	var segmentID int64
	if err == nil && seg != nil {
		segmentID = seg.ID
	}

	clipPathCopy := clipPath
	correctionID, err := w.opts.Store.SaveCorrection(ctx, store.Correction{
		SegmentID:         segmentID,
		OriginalText:      eval.OriginalText,
		CorrectedText:     eval.CorrectedText,
		TriggerConfidence: cl.AverageConfidence,
		AudioClipPath:     &clipPathCopy,
		ClipStart:         cl.ClipStart,
		ClipEnd:           cl.ClipEnd,
		EditDistance:      eval.LevenshteinDistance,
	})
	if err != nil {
		windowLog.Warn().Err(err).Msg("persist correction failed")
	} else if err := w.opts.Store.ClearCorrectionClipPath(ctx, correctionID); err != nil {
		windowLog.Warn().Err(err).Msg("clear correction clip path")
	}

	if eval.ShouldApply {
		metrics.CorrectionsAppliedTotal.Inc()
	} else {
		metrics.CorrectionsRejectedTotal.WithLabelValues(eval.Reason).Inc()
	}

	return reconcile.CorrectionCandidate{
		ClipStart:     cl.ClipStart,
		ClipEnd:       cl.ClipEnd,
		CorrectedText: eval.CorrectedText,
		ShouldApply:   eval.ShouldApply,
	}, true
}

var _ Slicer = (*slicer.Slicer)(nil)
var _ ASRClient = (*asr.Client)(nil)
var _ MultimodalClient = (*multimodal.Client)(nil)
