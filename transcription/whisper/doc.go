// Package whisper provides transcription via a local faster-whisper
// HTTP sidecar. Model tiers are loaded in the sidecar on demand and
// cached per provider instance.
package whisper
