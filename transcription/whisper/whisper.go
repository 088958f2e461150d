package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/provider"
	"github.com/kbukum/scribekit/transcription"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperModel   = transcription.ModelBase
	defaultWhisperTimeout = 120 * time.Second
)

// Config holds configuration for the Whisper transcription provider.
type Config struct {
	URL      string              `json:"url" yaml:"url"`
	Model    transcription.Model `json:"model" yaml:"model"`
	Language string              `json:"language,omitempty" yaml:"language"`
	Timeout  time.Duration       `json:"timeout" yaml:"timeout"`
}

// Provider implements transcription.Provider against a faster-whisper HTTP
// sidecar running locally. Models are loaded in the sidecar on first use per
// size tier and reused for subsequent chunks of the same tier; the loaded
// set is instance state, never package state.
type Provider struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger

	mu     sync.Mutex
	loaded map[transcription.Model]bool
}

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.URL == "" {
		cfg.URL = defaultWhisperURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if !cfg.Model.Valid() {
		return nil, errors.Configuration(fmt.Sprintf("unknown whisper model tier %q", cfg.Model))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultWhisperTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log:    logger.Get(ProviderName),
		loaded: make(map[transcription.Model]bool),
	}, nil
}

// Factory returns a provider.Factory that creates Whisper Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		wc := Config{}
		if v, ok := cfg["url"].(string); ok {
			wc.URL = v
		}
		if v, ok := cfg["model"].(string); ok {
			wc.Model = transcription.Model(v)
		}
		if v, ok := cfg["language"].(string); ok {
			wc.Language = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			wc.Timeout = v
		}
		return NewProvider(wc)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe sends one staged audio chunk to the Whisper sidecar.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	if !model.Valid() {
		return nil, errors.Configuration(fmt.Sprintf("unknown whisper model tier %q", model))
	}
	if err := p.ensureLoaded(ctx, model); err != nil {
		return nil, err
	}

	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, errors.StagingFailed(err)
	}

	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, errors.StagingFailed(err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, errors.StagingFailed(err)
	}

	_ = writer.WriteField("model", string(model))
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", &buf)
	if err != nil {
		return nil, errors.ServiceUnavailable(ProviderName, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	var result whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.ServiceUnavailable(ProviderName, fmt.Errorf("decode whisper response: %w", err))
	}

	return toResponse(&result), nil
}

// ensureLoaded asks the sidecar to load the model tier once; later chunks
// with the same tier reuse the already-loaded model.
func (p *Provider) ensureLoaded(ctx context.Context, model transcription.Model) error {
	p.mu.Lock()
	if p.loaded[model] {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	payload, _ := json.Marshal(map[string]string{"model": string(model)})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/models/load", bytes.NewReader(payload))
	if err != nil {
		return errors.ServiceUnavailable(ProviderName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}

	p.mu.Lock()
	p.loaded[model] = true
	p.mu.Unlock()
	p.log.Info("model loaded", logger.Fields(logger.FieldModel, string(model)))
	return nil
}

func classifyTransportError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout("whisper transcribe").WithCause(err)
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) && nerr.Timeout() {
		return errors.Timeout("whisper transcribe").WithCause(err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.ServiceUnavailable(ProviderName, err)
}

func classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := fmt.Errorf("whisper status %d: %s", resp.StatusCode, string(body))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.RateLimited(ProviderName).WithCause(detail)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.Configuration(detail.Error())
	default:
		return errors.ServiceUnavailable(ProviderName, detail)
	}
}

// --- internal sidecar API response types ---

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toResponse(resp *whisperResponse) *transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
	}
	return &transcription.Response{
		Text:     resp.Text,
		Segments: segments,
		Language: resp.Language,
	}
}
