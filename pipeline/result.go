package pipeline

import (
	"strings"
	"time"
)

// ChunkStatus classifies the result of transcribing one chunk.
type ChunkStatus string

const (
	// ChunkOK means the backend produced text for the chunk.
	ChunkOK ChunkStatus = "ok"
	// ChunkEmpty means the backend ran but recognized no speech.
	ChunkEmpty ChunkStatus = "empty"
	// ChunkFailed means the backend returned an error for the chunk.
	// Failed chunks never abort the run.
	ChunkFailed ChunkStatus = "failed"
)

// ChunkResult records the outcome of one chunk's transcription.
type ChunkResult struct {
	Index  int
	Text   string
	Status ChunkStatus
	// Err is set when Status is ChunkFailed.
	Err error
	// Elapsed is how long the backend call took.
	Elapsed time.Duration
}

// Status is the terminal state of a run.
type Status string

const (
	// StatusCompleted means the run finished and produced transcript text.
	// Some chunks may still have failed; inspect Results.
	StatusCompleted Status = "completed"
	// StatusNoSpeech means every chunk was processed but none produced
	// text. Distinct from a fatal zero-chunk failure.
	StatusNoSpeech Status = "no_speech"
	// StatusCancelled means the caller cancelled the run. Partial results
	// are discarded.
	StatusCancelled Status = "cancelled"
)

// Outcome is the final product of a run.
type Outcome struct {
	Status     Status
	Transcript string
	// Results holds one entry per chunk in index order. Empty for
	// cancelled runs.
	Results []ChunkResult
	// Elapsed is the total run duration.
	Elapsed time.Duration
}

// assemble joins OK chunk texts by ascending index. Empty and failed
// chunks contribute nothing.
func assemble(results []ChunkResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Status == ChunkOK && r.Text != "" {
			parts = append(parts, strings.TrimSpace(r.Text))
		}
	}
	return strings.Join(parts, " ")
}
