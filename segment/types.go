package segment

import (
	"fmt"
	"time"
)

// Segment is a candidate speech region on a buffer's timeline, found by
// silence detection and prior to duration bounding.
type Segment struct {
	// Start is the inclusive start offset.
	Start time.Duration
	// End is the exclusive end offset. Always > Start.
	End time.Duration
}

// Duration returns the segment's length.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// String returns a human-readable representation for logging.
func (s Segment) String() string {
	return fmt.Sprintf("[%v-%v]", s.Start, s.End)
}

// Chunk is a bounded audio slice submitted to a transcription backend as one
// unit. Index values are contiguous from 0 in timeline order.
type Chunk struct {
	// Index is the zero-based position used for deterministic reassembly.
	Index int
	// Start is the chunk's start offset on the buffer timeline.
	Start time.Duration
	// End is the chunk's end offset on the buffer timeline.
	End time.Duration
	// Source is the silence-detected segment this chunk was cut from.
	Source Segment
}

// Duration returns the chunk's length.
func (c Chunk) Duration() time.Duration {
	return c.End - c.Start
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %v-%v", c.Index, c.Start, c.End)
}

// Config holds segmentation and bounding parameters.
type Config struct {
	// MinSilence is the minimum silence run length that splits segments.
	MinSilence time.Duration `yaml:"min_silence" mapstructure:"min_silence"`
	// SilenceThresholdDBFS is the loudness below which audio counts as silence.
	SilenceThresholdDBFS float64 `yaml:"silence_threshold_dbfs" mapstructure:"silence_threshold_dbfs"`
	// KeepSilence is how much silence to retain on each side of a segment.
	KeepSilence time.Duration `yaml:"keep_silence" mapstructure:"keep_silence"`
	// MaxChunk is the maximum duration of any emitted chunk.
	MaxChunk time.Duration `yaml:"max_chunk" mapstructure:"max_chunk"`
	// MinChunk is the minimum duration below which chunks are dropped as noise.
	MinChunk time.Duration `yaml:"min_chunk" mapstructure:"min_chunk"`
}

// Default segmentation parameters.
const (
	DefaultMinSilence           = 500 * time.Millisecond
	DefaultSilenceThresholdDBFS = -40.0
	DefaultKeepSilence          = 300 * time.Millisecond
	DefaultMaxChunk             = 120 * time.Second
	DefaultMinChunk             = 100 * time.Millisecond
)

// ApplyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.MinSilence == 0 {
		c.MinSilence = DefaultMinSilence
	}
	if c.SilenceThresholdDBFS == 0 {
		c.SilenceThresholdDBFS = DefaultSilenceThresholdDBFS
	}
	if c.KeepSilence == 0 {
		c.KeepSilence = DefaultKeepSilence
	}
	if c.MaxChunk == 0 {
		c.MaxChunk = DefaultMaxChunk
	}
	if c.MinChunk == 0 {
		c.MinChunk = DefaultMinChunk
	}
}

// Validate checks parameter sanity.
func (c Config) Validate() error {
	if c.MinSilence < 0 || c.KeepSilence < 0 || c.MaxChunk < 0 || c.MinChunk < 0 {
		return fmt.Errorf("segment: durations must be non-negative")
	}
	if c.MaxChunk > 0 && c.MinChunk > c.MaxChunk {
		return fmt.Errorf("segment: min_chunk %v exceeds max_chunk %v", c.MinChunk, c.MaxChunk)
	}
	return nil
}
