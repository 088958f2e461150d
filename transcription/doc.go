// Package transcription defines the provider interface and common types
// for speech-to-text backends.
//
// It follows the generic provider pattern with a pluggable registry for
// runtime-selectable backends.
//
// # Backends
//
//   - transcription/whisper: local Whisper models via a sidecar, offline
//   - transcription/gspeech: Google Web Speech API over the network
//
// # Usage
//
//	mgr := transcription.NewManager(transcription.WithPriority("whisper", "google"))
//	mgr.Register(whisper.ProviderName, whisper.Factory())
//	_ = mgr.Initialize(whisper.ProviderName, cfg)
//	backend, _ := mgr.Get(ctx)
//	result, err := backend.Transcribe(ctx, req)
package transcription
