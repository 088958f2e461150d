package transcription

import (
	"context"

	"github.com/kbukum/scribekit/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends one audio chunk for transcription and returns the
	// result. Failures are reported as scribekit/errors AppErrors so the
	// pipeline can distinguish per-chunk conditions (Unintelligible,
	// ServiceUnavailable, Configuration, Timeout, RateLimited) from
	// fatal ones.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}
