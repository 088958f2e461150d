package process

import (
	"context"
	"os/exec"
	"time"
)

// Tool wraps one external binary (yt-dlp, ffmpeg) with per-call timeout
// and PATH-based availability checking.
type Tool struct {
	// Binary is the executable name or path.
	Binary string
	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
	// GracePeriod is passed through to every Command.
	GracePeriod time.Duration
	// Env is additional environment for every invocation.
	Env []string
}

// Available reports whether the binary resolves on PATH.
func (t *Tool) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

// Exec runs the tool with the given arguments.
func (t *Tool) Exec(ctx context.Context, dir string, args ...string) (*Result, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	return Run(ctx, Command{
		Binary:      t.Binary,
		Args:        args,
		Dir:         dir,
		Env:         t.Env,
		GracePeriod: t.GracePeriod,
	})
}
