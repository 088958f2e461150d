// Package segment turns a decoded audio buffer into bounded, speech-aligned
// chunks ready for transcription.
//
// Split finds candidate speech regions by scanning for silence runs below a
// dBFS threshold. Bound enforces minimum and maximum chunk durations on
// those regions, splitting over-long ones evenly and dropping noise-length
// ones. Both are pure, deterministic functions.
package segment
