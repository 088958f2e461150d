package logger

import (
	"sync"
)

// registry holds the named component loggers. Packages ask for their
// logger by component name ("pipeline", "media", "whisper") so log
// lines carry a stable component field without each caller rebuilding
// the context.
var registry = &loggerRegistry{
	loggers: make(map[string]*Logger),
}

type loggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

// Register stores a named component logger.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Get retrieves a component logger by name. Unregistered names fall
// back to the global logger tagged with the requested component, so
// callers never need to register before logging.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults seeds the registry with component loggers derived
// from the global config. Call after Init().
func RegisterDefaults(names ...string) {
	for _, name := range names {
		Register(name, GetGlobalLogger().WithComponent(name))
	}
}
