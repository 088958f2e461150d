package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/scribekit/logger"
)

// Config is the full application configuration.
type Config struct {
	// Engine selects the transcription backend.
	Engine string `yaml:"engine" mapstructure:"engine" validate:"oneof=whisper google"`

	Log       logger.Config   `yaml:"log" mapstructure:"log"`
	Whisper   WhisperConfig   `yaml:"whisper" mapstructure:"whisper"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Segmenter SegmenterConfig `yaml:"segmenter" mapstructure:"segmenter"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Media     MediaConfig     `yaml:"media" mapstructure:"media"`
}

// WhisperConfig configures the local whisper backend.
type WhisperConfig struct {
	URL     string        `yaml:"url" mapstructure:"url" validate:"omitempty,url"`
	Model   string        `yaml:"model" mapstructure:"model" validate:"omitempty,oneof=tiny base small medium large"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GoogleConfig configures the remote web speech backend.
type GoogleConfig struct {
	Key           string        `yaml:"key" mapstructure:"key"`
	Language      string        `yaml:"language" mapstructure:"language"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second" validate:"omitempty,gt=0"`
}

// SegmenterConfig holds silence detection and bounding settings in
// milliseconds, matching how they are written in config files.
type SegmenterConfig struct {
	MinSilenceMs   int     `yaml:"min_silence_ms" mapstructure:"min_silence_ms" validate:"omitempty,gt=0"`
	ThresholdDBFS  float64 `yaml:"threshold_dbfs" mapstructure:"threshold_dbfs" validate:"omitempty,lt=0"`
	KeepSilenceMs  int     `yaml:"keep_silence_ms" mapstructure:"keep_silence_ms" validate:"omitempty,gte=0"`
	MaxChunkMs     int     `yaml:"max_chunk_ms" mapstructure:"max_chunk_ms" validate:"omitempty,gt=0"`
	MinChunkMs     int     `yaml:"min_chunk_ms" mapstructure:"min_chunk_ms" validate:"omitempty,gt=0"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	Parallelism  int           `yaml:"parallelism" mapstructure:"parallelism" validate:"omitempty,gte=1,lte=16"`
	BackendSlots int           `yaml:"backend_slots" mapstructure:"backend_slots" validate:"omitempty,gte=1,lte=16"`
	ChunkTimeout time.Duration `yaml:"chunk_timeout" mapstructure:"chunk_timeout"`
}

// MediaConfig holds audio acquisition settings.
type MediaConfig struct {
	Binary      string        `yaml:"binary" mapstructure:"binary"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"omitempty,gte=1"`
	WorkDir     string        `yaml:"work_dir" mapstructure:"work_dir"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Engine == "" {
		c.Engine = "whisper"
	}
	c.Log.ApplyDefaults()
	if c.Pipeline.Parallelism == 0 {
		c.Pipeline.Parallelism = 1
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	c.ApplyDefaults()
	return validator.New().Struct(c)
}
