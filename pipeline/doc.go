// Package pipeline orchestrates a transcription run: silence-based
// segmentation, chunk bounding, per-chunk backend calls with failure
// isolation, and ordered transcript assembly. Progress is reported
// through a caller-supplied event channel.
package pipeline
