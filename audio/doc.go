// Package audio provides the decoded PCM buffer type shared by the
// segmentation and transcription pipeline, plus WAV decode/encode helpers.
//
// A Buffer is treated as immutable once constructed. Slicing returns views
// over the same sample storage so chunk extraction never copies audio.
package audio
