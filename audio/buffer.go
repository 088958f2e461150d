package audio

import (
	"math"
	"time"

	"github.com/kbukum/scribekit/errors"
)

// Buffer is an immutable decoded PCM audio buffer. Samples are interleaved
// across channels. Slices share the underlying sample data; callers must not
// mutate Samples after construction.
type Buffer struct {
	// Samples holds interleaved PCM sample values.
	Samples []int
	// SampleRate is the sample rate in Hz.
	SampleRate int
	// Channels is the number of interleaved channels.
	Channels int
	// BitDepth is the source PCM bit depth (e.g. 16).
	BitDepth int
}

// NewBuffer validates basic invariants and builds a Buffer.
func NewBuffer(samples []int, sampleRate, channels, bitDepth int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, errors.InvalidInput("sample_rate", "must be positive")
	}
	if channels <= 0 {
		return nil, errors.InvalidInput("channels", "must be positive")
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	if len(samples)%channels != 0 {
		return nil, errors.InvalidInput("samples", "length must be a multiple of channel count")
	}
	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}

// Frames returns the number of per-channel sample frames.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the buffer's total play time.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Empty reports whether the buffer holds no audio.
func (b *Buffer) Empty() bool {
	return b == nil || len(b.Samples) == 0
}

// FrameAt converts an offset on the buffer timeline to a frame index,
// clamped to the buffer bounds.
func (b *Buffer) FrameAt(offset time.Duration) int {
	if offset <= 0 {
		return 0
	}
	frame := int(int64(offset) * int64(b.SampleRate) / int64(time.Second))
	if frames := b.Frames(); frame > frames {
		return frames
	}
	return frame
}

// Slice returns a view of the buffer between two timeline offsets.
// The slice shares sample storage with the parent; no audio is copied.
func (b *Buffer) Slice(start, end time.Duration) *Buffer {
	startFrame := b.FrameAt(start)
	endFrame := b.FrameAt(end)
	if endFrame < startFrame {
		endFrame = startFrame
	}
	return &Buffer{
		Samples:    b.Samples[startFrame*b.Channels : endFrame*b.Channels],
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   b.BitDepth,
	}
}

// RMS returns the root-mean-square amplitude of the frame range
// [startFrame, endFrame), mixed across channels.
func (b *Buffer) RMS(startFrame, endFrame int) float64 {
	if frames := b.Frames(); endFrame > frames {
		endFrame = frames
	}
	if startFrame < 0 {
		startFrame = 0
	}
	if startFrame >= endFrame {
		return 0
	}
	var sum float64
	lo := startFrame * b.Channels
	hi := endFrame * b.Channels
	for _, s := range b.Samples[lo:hi] {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(hi-lo))
}

// LevelDBFS returns the loudness of the window [start, end) in decibels
// relative to full scale. Pure digital silence returns -Inf.
func (b *Buffer) LevelDBFS(start, end time.Duration) float64 {
	rms := b.RMS(b.FrameAt(start), b.FrameAt(end))
	if rms == 0 {
		return math.Inf(-1)
	}
	fullScale := float64(int64(1) << (b.BitDepth - 1))
	return 20 * math.Log10(rms/fullScale)
}
