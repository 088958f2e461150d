package pipeline

import "time"

// Stage names the phases a run moves through in order. There are no
// backward transitions.
type Stage string

const (
	StageSegmenting   Stage = "segmenting"
	StageBounding     Stage = "bounding"
	StageTranscribing Stage = "transcribing"
	StageAssembling   Stage = "assembling"
)

// EventKind discriminates progress events.
type EventKind string

const (
	EventStageEntered   EventKind = "stage_entered"
	EventStageCompleted EventKind = "stage_completed"
	EventChunkStarted   EventKind = "chunk_started"
	EventChunkResult    EventKind = "chunk_result"
)

// Event is one progress report from a run. Events are delivered to the
// caller-supplied channel in emission order; chunk events carry the
// zero-based chunk index and the total chunk count.
type Event struct {
	Kind   EventKind
	Stage  Stage
	Chunk  int
	Chunks int
	// Result is set on EventChunkResult events.
	Result *ChunkResult
	Time   time.Time
}
