package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/scribekit/audio"
	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/resilience"
	"github.com/kbukum/scribekit/segment"
	"github.com/kbukum/scribekit/transcription"
)

const defaultChunkTimeout = 120 * time.Second

// Config configures a pipeline run.
type Config struct {
	// Segmenter controls silence detection and chunk bounding.
	Segmenter segment.Config
	// ChunkTimeout bounds each backend call. A timed-out chunk is
	// recorded as failed and the run continues.
	ChunkTimeout time.Duration
	// Parallelism is the number of chunks transcribed concurrently.
	// 1 or less means strictly sequential.
	Parallelism int
	// BackendSlots caps in-flight backend calls independently of the
	// worker count. A sidecar with one loaded model wants 1 here even
	// when several workers prepare chunks. Defaults to Parallelism.
	BackendSlots int
	// Language is passed through to the backend on every chunk.
	Language string
	// Model selects the backend model tier, where supported.
	Model transcription.Model
	// WorkDir is where chunk files are staged. Defaults to the system
	// temp directory. Each run stages into its own subdirectory and
	// removes it when done.
	WorkDir string
	// Events receives progress reports when non-nil. The channel must be
	// drained by the caller; sends are abandoned once the run's context
	// is cancelled.
	Events chan<- Event
}

// Runner drives one audio buffer through segmentation, bounding, per-chunk
// transcription and transcript assembly. Per-chunk failures are absorbed
// into the chunk's result; only zero-chunk input, an unavailable backend,
// and chunk staging I/O abort a run.
type Runner struct {
	cfg      Config
	backend  transcription.Provider
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
}

// NewRunner creates a Runner for the given backend.
func NewRunner(backend transcription.Provider, cfg Config) (*Runner, error) {
	if backend == nil {
		return nil, errors.InvalidInput("backend", "must not be nil")
	}
	cfg.Segmenter.ApplyDefaults()
	if err := cfg.Segmenter.Validate(); err != nil {
		return nil, err
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = defaultChunkTimeout
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.BackendSlots <= 0 {
		cfg.BackendSlots = cfg.Parallelism
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Runner{
		cfg:     cfg,
		backend: backend,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "transcribe",
			MaxConcurrent: cfg.BackendSlots,
			MaxWait:       cfg.ChunkTimeout,
		}),
		log: logger.Get("pipeline").WithBackend(backend.Name()),
	}, nil
}

// Run transcribes one audio buffer. It returns a fatal error for
// pre-run and staging failures; cancellation yields an Outcome with
// StatusCancelled, no error, and no transcript.
func (r *Runner) Run(ctx context.Context, buf *audio.Buffer) (*Outcome, error) {
	if buf == nil || buf.Empty() {
		return nil, errors.NoTranscribableAudio()
	}

	started := time.Now()
	runID := uuid.NewString()
	log := r.log.WithRun(runID)

	if !r.backend.IsAvailable(ctx) {
		return nil, errors.BackendUnavailable(r.backend.Name())
	}

	r.emit(ctx, Event{Kind: EventStageEntered, Stage: StageSegmenting})
	segments := segment.Split(buf, r.cfg.Segmenter)
	log.Info("segmentation done", logger.Fields(
		logger.FieldStage, StageSegmenting, "segments", len(segments)))
	r.emit(ctx, Event{Kind: EventStageCompleted, Stage: StageSegmenting})

	r.emit(ctx, Event{Kind: EventStageEntered, Stage: StageBounding})
	chunks := segment.Bound(segments, r.cfg.Segmenter.MaxChunk, r.cfg.Segmenter.MinChunk)
	log.Info("bounding done", logger.Fields(
		logger.FieldStage, StageBounding, logger.FieldChunks, len(chunks)))
	r.emit(ctx, Event{Kind: EventStageCompleted, Stage: StageBounding})

	if len(chunks) == 0 {
		return nil, errors.NoTranscribableAudio()
	}

	stageDir := filepath.Join(r.cfg.WorkDir, "scribe-"+runID)
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return nil, errors.StagingFailed(err)
	}
	defer os.RemoveAll(stageDir)

	r.emit(ctx, Event{Kind: EventStageEntered, Stage: StageTranscribing, Chunks: len(chunks)})
	results, err := r.transcribeAll(ctx, log, stageDir, buf, chunks)
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			log.Warn("run cancelled", logger.Fields(logger.FieldStatus, StatusCancelled))
			return &Outcome{Status: StatusCancelled, Elapsed: time.Since(started)}, nil
		}
		return nil, err
	}
	r.emit(ctx, Event{Kind: EventStageCompleted, Stage: StageTranscribing, Chunks: len(chunks)})

	r.emit(ctx, Event{Kind: EventStageEntered, Stage: StageAssembling})
	transcript := assemble(results)
	r.emit(ctx, Event{Kind: EventStageCompleted, Stage: StageAssembling})

	status := StatusCompleted
	if transcript == "" {
		status = StatusNoSpeech
	}
	log.Info("run finished", logger.Fields(
		logger.FieldStatus, status,
		logger.FieldChunks, len(chunks),
		logger.FieldDuration, time.Since(started).Milliseconds()))

	return &Outcome{
		Status:     status,
		Transcript: transcript,
		Results:    results,
		Elapsed:    time.Since(started),
	}, nil
}

// transcribeAll processes every chunk and returns results in index order.
// A context.Canceled return means the run was cancelled and partial
// results must be discarded.
func (r *Runner) transcribeAll(ctx context.Context, log *logger.Logger, stageDir string, buf *audio.Buffer, chunks []segment.Chunk) ([]ChunkResult, error) {
	if r.cfg.Parallelism > 1 {
		return r.transcribeParallel(ctx, log, stageDir, buf, chunks)
	}

	results := make([]ChunkResult, len(chunks))
	for _, ch := range chunks {
		// Cancellation is honored at chunk boundaries.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.emit(ctx, Event{Kind: EventChunkStarted, Stage: StageTranscribing, Chunk: ch.Index, Chunks: len(chunks)})
		res, err := r.transcribeChunk(ctx, log, stageDir, buf, ch)
		if err != nil {
			return nil, err
		}
		results[ch.Index] = res
		r.emit(ctx, Event{Kind: EventChunkResult, Stage: StageTranscribing, Chunk: ch.Index, Chunks: len(chunks), Result: &res})
	}
	return results, nil
}

func (r *Runner) transcribeParallel(ctx context.Context, log *logger.Logger, stageDir string, buf *audio.Buffer, chunks []segment.Chunk) ([]ChunkResult, error) {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]ChunkResult, len(chunks))
	in := make(chan segment.Chunk)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatal error

	for i := 0; i < r.cfg.Parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ch := range in {
				if workerCtx.Err() != nil {
					return
				}
				r.emit(workerCtx, Event{Kind: EventChunkStarted, Stage: StageTranscribing, Chunk: ch.Index, Chunks: len(chunks)})
				res, err := r.transcribeChunk(workerCtx, log, stageDir, buf, ch)
				if err != nil {
					mu.Lock()
					if fatal == nil {
						fatal = err
					}
					mu.Unlock()
					cancel()
					return
				}
				mu.Lock()
				results[ch.Index] = res
				mu.Unlock()
				r.emit(workerCtx, Event{Kind: EventChunkResult, Stage: StageTranscribing, Chunk: ch.Index, Chunks: len(chunks), Result: &res})
			}
		}()
	}

feed:
	for _, ch := range chunks {
		select {
		case in <- ch:
		case <-workerCtx.Done():
			break feed
		}
	}
	close(in)
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// transcribeChunk stages one chunk to disk, runs the backend call under the
// per-chunk timeout and the backend-capacity bulkhead, and classifies the
// result. Returned errors are fatal; per-chunk failures come back inside
// the ChunkResult.
func (r *Runner) transcribeChunk(ctx context.Context, log *logger.Logger, stageDir string, buf *audio.Buffer, ch segment.Chunk) (ChunkResult, error) {
	path := filepath.Join(stageDir, fmt.Sprintf("chunk-%04d.wav", ch.Index))
	if err := audio.WriteWAV(path, buf.Slice(ch.Start, ch.End)); err != nil {
		return ChunkResult{}, errors.StagingFailed(err)
	}
	// Chunks are never needed after their result is recorded.
	defer os.Remove(path)

	callCtx, cancelCall := context.WithTimeout(ctx, r.cfg.ChunkTimeout)
	defer cancelCall()

	started := time.Now()
	resp, err := resilience.ExecuteWithResult(r.bulkhead, callCtx, func() (*transcription.Response, error) {
		return r.backend.Transcribe(callCtx, transcription.Request{
			AudioPath: path,
			Language:  r.cfg.Language,
			Model:     r.cfg.Model,
		})
	})
	elapsed := time.Since(started)

	if err != nil {
		// The caller cancelling the run is not a chunk failure.
		if ctx.Err() != nil {
			return ChunkResult{}, context.Canceled
		}
		res := ChunkResult{Index: ch.Index, Status: ChunkFailed, Err: classifyChunkError(err), Elapsed: elapsed}
		log.Warn("chunk failed", logger.Fields(
			logger.FieldChunk, ch.Index,
			logger.FieldError, res.Err.Error(),
			logger.FieldDuration, elapsed.Milliseconds()))
		return res, nil
	}

	res := ChunkResult{Index: ch.Index, Text: resp.Text, Status: ChunkOK, Elapsed: elapsed}
	if resp.Empty() {
		res.Status = ChunkEmpty
		res.Text = ""
	}
	log.Debug("chunk done", logger.Fields(
		logger.FieldChunk, ch.Index,
		logger.FieldStatus, res.Status,
		logger.FieldDuration, elapsed.Milliseconds()))
	return res, nil
}

// classifyChunkError maps timeouts and bulkhead exhaustion to the timeout
// code so they read like any other failed chunk.
func classifyChunkError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout("chunk transcription").WithCause(err)
	}
	if stderrors.Is(err, resilience.ErrBulkheadFull) || stderrors.Is(err, resilience.ErrBulkheadTimeout) {
		return errors.Timeout("backend slot wait").WithCause(err)
	}
	return err
}

func (r *Runner) emit(ctx context.Context, ev Event) {
	if r.cfg.Events == nil {
		return
	}
	ev.Time = time.Now()
	select {
	case r.cfg.Events <- ev:
	case <-ctx.Done():
	}
}
