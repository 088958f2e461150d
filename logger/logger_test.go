package logger

import (
	"os"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNew(t *testing.T) {
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg, "scribe")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "scribe" {
		t.Errorf("expected service 'scribe', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("test")
	cl := l.WithComponent("segmenter")
	if cl == nil {
		t.Fatal("expected non-nil logger")
	}
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
}

func TestRegistryGet_Unregistered(t *testing.T) {
	l := Get("not-registered")
	if l == nil {
		t.Fatal("expected fallback logger for unregistered name")
	}
}

func TestRegistryGet_Registered(t *testing.T) {
	custom := NewDefault("custom")
	Register("pipeline", custom)
	if got := Get("pipeline"); got != custom {
		t.Error("expected registered logger to be returned")
	}
}

func TestFields(t *testing.T) {
	m := Fields("chunk", 3, "chunks", 12)
	if m["chunk"] != 3 || m["chunks"] != 12 {
		t.Errorf("unexpected fields map: %v", m)
	}
}

func TestFields_OddArgs(t *testing.T) {
	m := Fields("only-key")
	if len(m) != 0 {
		t.Errorf("expected empty map for dangling key, got %v", m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("segment", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := Config{Level: "verbose", Format: "json"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
}
