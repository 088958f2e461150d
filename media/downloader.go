package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/process"
	"github.com/kbukum/scribekit/resilience"
)

const (
	defaultBinary      = "yt-dlp"
	defaultDownloadTTL = 10 * time.Minute
	downloadStem       = "downloaded_audio"
)

// DownloaderConfig configures audio acquisition.
type DownloaderConfig struct {
	// Binary is the downloader executable. Defaults to yt-dlp.
	Binary string
	// Timeout bounds one download attempt.
	Timeout time.Duration
	// MaxAttempts is the retry budget for transient download failures.
	MaxAttempts int
}

// Downloader fetches a video URL's audio track as WAV using an external
// yt-dlp binary.
type Downloader struct {
	tool  *process.Tool
	retry resilience.RetryConfig
	log   *logger.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg DownloaderConfig) *Downloader {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDownloadTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Downloader{
		tool: &process.Tool{
			Binary:  cfg.Binary,
			Timeout: cfg.Timeout,
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     30 * time.Second,
			BackoffFactor:  2.0,
			Jitter:         0.2,
		},
		log: logger.Get("media"),
	}
}

// Available reports whether the downloader binary is on PATH.
func (d *Downloader) Available() bool {
	return d.tool.Available()
}

// Download fetches the URL's audio into dir and returns the WAV path.
// Transient failures are retried with backoff before giving up.
func (d *Downloader) Download(ctx context.Context, url, dir string) (string, error) {
	if url == "" {
		return "", errors.InvalidInput("url", "must not be empty")
	}
	if !d.Available() {
		return "", errors.DownloadFailed(url, fmt.Errorf("%s not found on PATH", d.tool.Binary))
	}

	template := filepath.Join(dir, downloadStem+".%(ext)s")
	args := []string{
		"--no-check-certificate",
		"-x",
		"--audio-format", "wav",
		"-o", template,
		"--no-playlist",
		url,
	}

	d.log.Info("downloading audio", logger.Fields(logger.FieldSource, url))
	started := time.Now()

	path, err := resilience.Retry(ctx, d.retry, func() (string, error) {
		res, err := d.tool.Exec(ctx, "", args...)
		if err != nil {
			stderr := ""
			if res != nil {
				stderr = lastLine(res.Stderr)
			}
			return "", fmt.Errorf("%w: %s", err, stderr)
		}
		return findWAV(dir)
	})
	if err != nil {
		d.log.Error("download failed", logger.ErrorFields("download", err))
		return "", errors.DownloadFailed(url, err)
	}

	d.log.Info("download complete", logger.Fields(
		logger.FieldSource, url,
		logger.FieldDuration, time.Since(started).Milliseconds()))
	return path, nil
}

// findWAV locates the converted output. The extension conversion means
// the exact name is predictable, but fall back to any matching WAV in
// case the extractor renamed it.
func findWAV(dir string) (string, error) {
	exact := filepath.Join(dir, downloadStem+".wav")
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, downloadStem+"*.wav"))
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("no WAV produced in %s", dir)
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
