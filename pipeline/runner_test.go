package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/scribekit/audio"
	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/transcription"
)

const testRate = 1000

type span struct {
	ms     int
	speech bool
}

// buildBuffer lays out speech and silence spans back to back, mono 16-bit.
func buildBuffer(t *testing.T, spans ...span) *audio.Buffer {
	t.Helper()
	var samples []int
	for _, sp := range spans {
		n := sp.ms * testRate / 1000
		for i := 0; i < n; i++ {
			if sp.speech {
				if i%2 == 0 {
					samples = append(samples, 8000)
				} else {
					samples = append(samples, -8000)
				}
			} else {
				samples = append(samples, 0)
			}
		}
	}
	buf, err := audio.NewBuffer(samples, testRate, 1, 16)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return buf
}

// fiveSpans yields five speech spans separated by qualifying silence.
func fiveSpans(t *testing.T) *audio.Buffer {
	t.Helper()
	return buildBuffer(t,
		span{1000, true}, span{700, false},
		span{1000, true}, span{700, false},
		span{1000, true}, span{700, false},
		span{1000, true}, span{700, false},
		span{1000, true},
	)
}

type fakeBackend struct {
	available bool
	fn        func(idx int, req transcription.Request) (*transcription.Response, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeBackend) Name() string                        { return "fake" }
func (f *fakeBackend) IsAvailable(ctx context.Context) bool { return f.available }

func (f *fakeBackend) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(chunkIndex(req.AudioPath), req)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func chunkIndex(path string) int {
	var i int
	fmt.Sscanf(filepath.Base(path), "chunk-%04d.wav", &i)
	return i
}

func textBackend(texts map[int]string) *fakeBackend {
	return &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			return &transcription.Response{Text: texts[idx]}, nil
		},
	}
}

func newRunner(t *testing.T, backend transcription.Provider, cfg Config) *Runner {
	t.Helper()
	cfg.WorkDir = t.TempDir()
	r, err := NewRunner(backend, cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestRunner_Completed(t *testing.T) {
	buf := buildBuffer(t, span{1000, true}, span{700, false}, span{1000, true})
	backend := textBackend(map[int]string{0: "hello", 1: "world"})

	events := make(chan Event, 256)
	r := newRunner(t, backend, Config{Events: events})

	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Errorf("Status = %v, want %v", out.Status, StatusCompleted)
	}
	if out.Transcript != "hello world" {
		t.Errorf("Transcript = %q, want %q", out.Transcript, "hello world")
	}
	if len(out.Results) != 2 {
		t.Fatalf("Results = %d, want 2", len(out.Results))
	}

	close(events)
	var stages []Stage
	chunkResults := 0
	for ev := range events {
		if ev.Kind == EventStageEntered {
			stages = append(stages, ev.Stage)
		}
		if ev.Kind == EventChunkResult {
			chunkResults++
		}
	}
	wantStages := []Stage{StageSegmenting, StageBounding, StageTranscribing, StageAssembling}
	if len(stages) != len(wantStages) {
		t.Fatalf("stages entered = %v, want %v", stages, wantStages)
	}
	for i, s := range wantStages {
		if stages[i] != s {
			t.Errorf("stage[%d] = %v, want %v", i, stages[i], s)
		}
	}
	if chunkResults != 2 {
		t.Errorf("chunk result events = %d, want 2", chunkResults)
	}
}

func TestRunner_FailedChunkContinues(t *testing.T) {
	buf := fiveSpans(t)
	backend := &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			if idx == 2 {
				return nil, errors.ServiceUnavailable("fake", fmt.Errorf("connection refused"))
			}
			return &transcription.Response{Text: fmt.Sprintf("t%d", idx)}, nil
		},
	}

	r := newRunner(t, backend, Config{})
	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Errorf("Status = %v, want %v", out.Status, StatusCompleted)
	}
	if out.Transcript != "t0 t1 t3 t4" {
		t.Errorf("Transcript = %q, want %q", out.Transcript, "t0 t1 t3 t4")
	}
	if out.Results[2].Status != ChunkFailed {
		t.Errorf("Results[2].Status = %v, want %v", out.Results[2].Status, ChunkFailed)
	}
	if got := errors.CodeOf(out.Results[2].Err); got != errors.ErrCodeServiceUnavailable {
		t.Errorf("Results[2] code = %v, want %v", got, errors.ErrCodeServiceUnavailable)
	}
}

func TestRunner_NoTranscribableAudio(t *testing.T) {
	// Entire buffer shorter than the minimum chunk duration.
	buf := buildBuffer(t, span{50, true})
	backend := textBackend(nil)

	r := newRunner(t, backend, Config{})
	_, err := r.Run(context.Background(), buf)
	if got := errors.CodeOf(err); got != errors.ErrCodeNoTranscribableAudio {
		t.Fatalf("code = %v, want %v", got, errors.ErrCodeNoTranscribableAudio)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times, want 0", backend.callCount())
	}
}

func TestRunner_BackendUnavailable(t *testing.T) {
	buf := buildBuffer(t, span{1000, true})
	backend := &fakeBackend{available: false}

	r := newRunner(t, backend, Config{})
	_, err := r.Run(context.Background(), buf)
	if got := errors.CodeOf(err); got != errors.ErrCodeBackendUnavailable {
		t.Fatalf("code = %v, want %v", got, errors.ErrCodeBackendUnavailable)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times, want 0", backend.callCount())
	}
}

func TestRunner_NoSpeech(t *testing.T) {
	buf := buildBuffer(t, span{1000, true}, span{700, false}, span{1000, true})
	backend := &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			return &transcription.Response{}, nil
		},
	}

	r := newRunner(t, backend, Config{})
	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != StatusNoSpeech {
		t.Errorf("Status = %v, want %v", out.Status, StatusNoSpeech)
	}
	for _, res := range out.Results {
		if res.Status != ChunkEmpty {
			t.Errorf("Results[%d].Status = %v, want %v", res.Index, res.Status, ChunkEmpty)
		}
	}
}

func TestRunner_Cancelled(t *testing.T) {
	buf := fiveSpans(t)
	ctx, cancel := context.WithCancel(context.Background())

	backend := &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			if idx == 1 {
				cancel()
			}
			return &transcription.Response{Text: fmt.Sprintf("t%d", idx)}, nil
		},
	}

	r := newRunner(t, backend, Config{})
	out, err := r.Run(ctx, buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != StatusCancelled {
		t.Errorf("Status = %v, want %v", out.Status, StatusCancelled)
	}
	if out.Transcript != "" {
		t.Errorf("Transcript = %q, want empty", out.Transcript)
	}
	if out.Results != nil {
		t.Errorf("Results = %v, want nil", out.Results)
	}
	if backend.callCount() >= 5 {
		t.Errorf("backend called %d times, expected cancellation before all chunks", backend.callCount())
	}
}

func TestRunner_ChunkTimeout(t *testing.T) {
	buf := buildBuffer(t, span{1000, true}, span{700, false}, span{1000, true})
	slow := &ctxAwareBackend{slowIndex: 1}
	r := newRunner(t, slow, Config{ChunkTimeout: 50 * time.Millisecond})

	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Errorf("Status = %v, want %v", out.Status, StatusCompleted)
	}
	if out.Transcript != "fast" {
		t.Errorf("Transcript = %q, want %q", out.Transcript, "fast")
	}
	if out.Results[1].Status != ChunkFailed {
		t.Fatalf("Results[1].Status = %v, want %v", out.Results[1].Status, ChunkFailed)
	}
	if got := errors.CodeOf(out.Results[1].Err); got != errors.ErrCodeTimeout {
		t.Errorf("Results[1] code = %v, want %v", got, errors.ErrCodeTimeout)
	}
}

// ctxAwareBackend blocks on the call context for one chunk so the
// per-chunk timeout fires.
type ctxAwareBackend struct {
	slowIndex int
}

func (b *ctxAwareBackend) Name() string                        { return "slow" }
func (b *ctxAwareBackend) IsAvailable(ctx context.Context) bool { return true }

func (b *ctxAwareBackend) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if chunkIndex(req.AudioPath) == b.slowIndex {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &transcription.Response{Text: "fast"}, nil
}

func TestRunner_ParallelOrderedMerge(t *testing.T) {
	buf := fiveSpans(t)
	// Later chunks finish first; the transcript must still follow index order.
	backend := &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			time.Sleep(time.Duration(5-idx) * 20 * time.Millisecond)
			return &transcription.Response{Text: fmt.Sprintf("t%d", idx)}, nil
		},
	}

	r := newRunner(t, backend, Config{Parallelism: 5})
	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Transcript != "t0 t1 t2 t3 t4" {
		t.Errorf("Transcript = %q, want %q", out.Transcript, "t0 t1 t2 t3 t4")
	}
}

func TestRunner_BackendSlotsLimit(t *testing.T) {
	buf := fiveSpans(t)
	// Four workers feed the backend, but only one call may be in flight.
	var mu sync.Mutex
	inFlight, peak := 0, 0
	backend := &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			return &transcription.Response{Text: fmt.Sprintf("t%d", idx)}, nil
		},
	}

	r := newRunner(t, backend, Config{Parallelism: 4, BackendSlots: 1})
	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Transcript != "t0 t1 t2 t3 t4" {
		t.Errorf("Transcript = %q, want %q", out.Transcript, "t0 t1 t2 t3 t4")
	}
	mu.Lock()
	defer mu.Unlock()
	if peak != 1 {
		t.Errorf("peak in-flight calls = %d, want 1", peak)
	}
}

func TestRunner_AllSilenceBuffer(t *testing.T) {
	// Pure silence still yields one whole-buffer chunk; an empty backend
	// answer becomes a no-speech outcome, not an error.
	buf := buildBuffer(t, span{2000, false})
	backend := &fakeBackend{
		available: true,
		fn: func(idx int, req transcription.Request) (*transcription.Response, error) {
			return &transcription.Response{}, nil
		},
	}

	r := newRunner(t, backend, Config{})
	out, err := r.Run(context.Background(), buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != StatusNoSpeech {
		t.Errorf("Status = %v, want %v", out.Status, StatusNoSpeech)
	}
	if backend.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", backend.callCount())
	}
}

func TestAssemble_SkipsFailedAndEmpty(t *testing.T) {
	results := []ChunkResult{
		{Index: 0, Text: "a", Status: ChunkOK},
		{Index: 1, Status: ChunkEmpty},
		{Index: 2, Status: ChunkFailed, Err: errors.Unintelligible("fake")},
		{Index: 3, Text: "b", Status: ChunkOK},
	}
	if got := assemble(results); got != "a b" {
		t.Errorf("assemble = %q, want %q", got, "a b")
	}
}
