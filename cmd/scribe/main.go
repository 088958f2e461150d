package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kbukum/scribekit/audio"
	"github.com/kbukum/scribekit/config"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/media"
	"github.com/kbukum/scribekit/pipeline"
	"github.com/kbukum/scribekit/segment"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/transcription/gspeech"
	"github.com/kbukum/scribekit/transcription/whisper"
	"github.com/kbukum/scribekit/version"
)

var cli struct {
	Source string `arg:"" help:"Video URL or local WAV file to transcribe."`

	Output   string `short:"o" type:"path" help:"Write the transcript to this file instead of stdout."`
	Engine   string `help:"Transcription engine." enum:"whisper,google," default:""`
	Model    string `help:"Whisper model size tier." enum:"tiny,base,small,medium,large," default:""`
	Language string `help:"Expected audio language (e.g. en, de-DE)."`

	MinSilence    int     `help:"Minimum silence length in ms required to split audio."`
	SilenceThresh float64 `help:"Silence threshold in dBFS (negative, e.g. -40)."`
	KeepSilence   int     `help:"Silence padding kept on each side of a chunk, in ms."`
	MaxChunk      int     `help:"Maximum chunk length in ms."`
	MinChunk      int     `help:"Minimum chunk length in ms; shorter chunks are dropped."`

	Parallel     int           `help:"Number of chunks transcribed concurrently."`
	BackendSlots int           `help:"Maximum in-flight backend calls; defaults to --parallel."`
	Timeout      time.Duration `help:"Per-chunk transcription timeout."`

	Config  string `type:"path" help:"Config file path."`
	EnvFile string `type:"path" help:"Env file path."`
	Verbose bool   `short:"v" help:"Enable debug logging."`
	Quiet   bool   `short:"q" help:"Suppress progress output."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	ktx := kong.Parse(&cli,
		kong.Name("scribe"),
		kong.Description("Transcribe audio from a video URL or WAV file using silence-aware chunking."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	cfg, err := loadConfig()
	if err != nil {
		ktx.FatalIfErrorf(err)
	}

	logger.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ktx.FatalIfErrorf(run(ctx, cfg))
}

func loadConfig() (*config.Config, error) {
	var opts []config.LoaderOption
	if cli.Config != "" {
		opts = append(opts, config.WithConfigFile(cli.Config))
	}
	if cli.EnvFile != "" {
		opts = append(opts, config.WithEnvFile(cli.EnvFile))
	}

	var cfg config.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}

	// Command-line flags override file and environment settings.
	if cli.Engine != "" {
		cfg.Engine = cli.Engine
	}
	if cli.Model != "" {
		cfg.Whisper.Model = cli.Model
	}
	if cli.Language != "" {
		cfg.Google.Language = cli.Language
	}
	if cli.MinSilence > 0 {
		cfg.Segmenter.MinSilenceMs = cli.MinSilence
	}
	if cli.SilenceThresh < 0 {
		cfg.Segmenter.ThresholdDBFS = cli.SilenceThresh
	}
	if cli.KeepSilence > 0 {
		cfg.Segmenter.KeepSilenceMs = cli.KeepSilence
	}
	if cli.MaxChunk > 0 {
		cfg.Segmenter.MaxChunkMs = cli.MaxChunk
	}
	if cli.MinChunk > 0 {
		cfg.Segmenter.MinChunkMs = cli.MinChunk
	}
	if cli.Parallel > 0 {
		cfg.Pipeline.Parallelism = cli.Parallel
	}
	if cli.BackendSlots > 0 {
		cfg.Pipeline.BackendSlots = cli.BackendSlots
	}
	if cli.Timeout > 0 {
		cfg.Pipeline.ChunkTimeout = cli.Timeout
	}
	if cli.Verbose {
		cfg.Log.Level = "debug"
	}
	return &cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config) error {
	backend, err := selectBackend(ctx, cfg)
	if err != nil {
		return err
	}

	buf, cleanup, err := acquire(ctx, cfg, cli.Source)
	if err != nil {
		return err
	}
	defer cleanup()

	events := make(chan pipeline.Event, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reportProgress(events)
	}()

	runner, err := pipeline.NewRunner(backend, pipeline.Config{
		Segmenter:    segmenterConfig(cfg),
		ChunkTimeout: cfg.Pipeline.ChunkTimeout,
		Parallelism:  cfg.Pipeline.Parallelism,
		BackendSlots: cfg.Pipeline.BackendSlots,
		Language:     cfg.Google.Language,
		Model:        transcription.Model(cfg.Whisper.Model),
		WorkDir:      cfg.Media.WorkDir,
		Events:       events,
	})
	if err != nil {
		close(events)
		wg.Wait()
		return err
	}

	out, err := runner.Run(ctx, buf)
	close(events)
	wg.Wait()
	if err != nil {
		return err
	}

	return deliver(out)
}

// selectBackend initializes the configured engine through the provider
// manager and verifies it is usable before anything is downloaded.
func selectBackend(ctx context.Context, cfg *config.Config) (transcription.Provider, error) {
	mgr := transcription.NewManager(transcription.WithPriority(whisper.ProviderName, gspeech.ProviderName))
	mgr.Register(whisper.ProviderName, whisper.Factory())
	mgr.Register(gspeech.ProviderName, gspeech.Factory())

	name := whisper.ProviderName
	settings := map[string]any{
		"url":     cfg.Whisper.URL,
		"model":   cfg.Whisper.Model,
		"timeout": cfg.Whisper.Timeout,
	}
	if cfg.Engine == "google" {
		name = gspeech.ProviderName
		settings = map[string]any{
			"key":             cfg.Google.Key,
			"language":        cfg.Google.Language,
			"timeout":         cfg.Google.Timeout,
			"rate_per_second": cfg.Google.RatePerSecond,
		}
	}

	if err := mgr.Initialize(name, settings); err != nil {
		return nil, err
	}
	if err := mgr.SetDefault(name); err != nil {
		return nil, err
	}
	return mgr.Get(ctx)
}

// acquire resolves the source argument to a decoded audio buffer. URLs
// are downloaded into a scratch workspace that the returned cleanup
// removes.
func acquire(ctx context.Context, cfg *config.Config, source string) (*audio.Buffer, func(), error) {
	noop := func() {}
	if !isURL(source) {
		buf, err := media.Load(source)
		return buf, noop, err
	}

	ws, err := media.NewWorkspace(cfg.Media.WorkDir)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() { ws.Close() }

	dl := media.NewDownloader(media.DownloaderConfig{
		Binary:      cfg.Media.Binary,
		Timeout:     cfg.Media.Timeout,
		MaxAttempts: cfg.Media.MaxAttempts,
	})
	path, err := dl.Download(ctx, source, ws.Root)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	buf, err := media.Load(path)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return buf, cleanup, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func segmenterConfig(cfg *config.Config) segment.Config {
	return segment.Config{
		MinSilence:           time.Duration(cfg.Segmenter.MinSilenceMs) * time.Millisecond,
		SilenceThresholdDBFS: cfg.Segmenter.ThresholdDBFS,
		KeepSilence:          time.Duration(cfg.Segmenter.KeepSilenceMs) * time.Millisecond,
		MaxChunk:             time.Duration(cfg.Segmenter.MaxChunkMs) * time.Millisecond,
		MinChunk:             time.Duration(cfg.Segmenter.MinChunkMs) * time.Millisecond,
	}
}

// reportProgress renders pipeline events as console lines on stderr,
// keeping stdout clean for the transcript itself.
func reportProgress(events <-chan pipeline.Event) {
	for ev := range events {
		if cli.Quiet {
			continue
		}
		switch ev.Kind {
		case pipeline.EventStageEntered:
			if ev.Stage == pipeline.StageTranscribing {
				fmt.Fprintf(os.Stderr, "» transcribing %d chunk(s)\n", ev.Chunks)
			} else {
				fmt.Fprintf(os.Stderr, "» %s\n", ev.Stage)
			}
		case pipeline.EventChunkStarted:
			fmt.Fprintf(os.Stderr, "  chunk %d/%d...\n", ev.Chunk+1, ev.Chunks)
		case pipeline.EventChunkResult:
			switch ev.Result.Status {
			case pipeline.ChunkOK:
				fmt.Fprintf(os.Stderr, "  chunk %d/%d done (%s)\n", ev.Chunk+1, ev.Chunks, ev.Result.Elapsed.Round(time.Millisecond))
			case pipeline.ChunkEmpty:
				fmt.Fprintf(os.Stderr, "  chunk %d/%d: no speech\n", ev.Chunk+1, ev.Chunks)
			case pipeline.ChunkFailed:
				fmt.Fprintf(os.Stderr, "  chunk %d/%d FAILED: %v\n", ev.Chunk+1, ev.Chunks, ev.Result.Err)
			}
		}
	}
}

// deliver writes the final transcript and summarizes partial failures.
func deliver(out *pipeline.Outcome) error {
	switch out.Status {
	case pipeline.StatusCancelled:
		fmt.Fprintln(os.Stderr, "cancelled; no transcript produced")
		return nil
	case pipeline.StatusNoSpeech:
		fmt.Fprintln(os.Stderr, "no speech recognized")
		return nil
	}

	failed := 0
	for _, r := range out.Results {
		if r.Status == pipeline.ChunkFailed {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d of %d chunks failed; transcript is partial\n", failed, len(out.Results))
	}

	if cli.Output != "" {
		if err := os.WriteFile(cli.Output, []byte(out.Transcript+"\n"), 0o644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		fmt.Fprintf(os.Stderr, "transcript written to %s\n", cli.Output)
		return nil
	}

	fmt.Println(out.Transcript)
	return nil
}
