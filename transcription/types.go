package transcription

import (
	"strings"
)

// Model is a named quality/speed tier for a local transcription model.
// Larger tiers trade latency for accuracy.
type Model string

// Supported model size tiers, fastest to most accurate.
const (
	ModelTiny   Model = "tiny"
	ModelBase   Model = "base"
	ModelSmall  Model = "small"
	ModelMedium Model = "medium"
	ModelLarge  Model = "large"
)

// Models lists the supported size tiers in ascending accuracy order.
func Models() []Model {
	return []Model{ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge}
}

// Valid reports whether m names a supported size tier.
func (m Model) Valid() bool {
	switch m {
	case ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge:
		return true
	}
	return false
}

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the staged audio chunk to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model is the size tier to use, for backends that support tiers.
	Model Model `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the transcribed text. Empty when the backend ran but found
	// no discernible speech; that is a valid outcome, not an error.
	Text string `json:"text"`
	// Segments contains time-aligned transcript segments, if the backend
	// provides them.
	Segments []Segment `json:"segments,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Empty reports whether the backend produced no usable text.
func (r *Response) Empty() bool {
	return r == nil || strings.TrimSpace(r.Text) == ""
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
}
