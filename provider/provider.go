package provider

import "context"

// Provider is the contract every pluggable backend satisfies. The
// transcription engines are the primary implementors; the registry and
// selectors only rely on this surface.
type Provider interface {
	// Name returns the name the backend registers under, e.g. "whisper".
	Name() string
	// IsAvailable reports whether the backend can serve requests right
	// now. Selectors probe this before routing work to a backend.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a backend instance from the engine's settings map, as
// layered from config file, environment and CLI flags.
type Factory[T Provider] func(cfg map[string]any) (T, error)
