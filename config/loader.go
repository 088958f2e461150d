package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SCRIBE"

// FileSystem abstracts file probing so resolution is testable.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads configuration from an optional YAML file, a .env file and
// SCRIBE_* environment variables, then validates the result. Settings
// layer in that order with the environment winning.
func Load(cfg *Config, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = findConfigFile(lc.FileSystem)
	}
	envFile := lc.EnvFile
	if envFile == "" && lc.FileSystem.Exists(".env") {
		envFile = ".env"
	}

	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load %s: %v\n", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if configFile != "" && lc.FileSystem.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg.Validate()
}

// findConfigFile probes the working directory then the user config dir.
func findConfigFile(fs FileSystem) string {
	candidates := []string{
		"./scribe.yml",
		"./scribe.yaml",
	}
	if dir, err := fs.UserConfigDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(dir, "scribe", "config.yml"),
			filepath.Join(dir, "scribe", "config.yaml"),
		)
	}
	for _, path := range candidates {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindKeys registers every config key with viper so AutomaticEnv can see
// SCRIBE_SECTION_KEY variables without an explicit config file entry.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"engine",
		"log.level", "log.format", "log.output",
		"whisper.url", "whisper.model", "whisper.timeout",
		"google.key", "google.language", "google.timeout", "google.rate_per_second",
		"segmenter.min_silence_ms", "segmenter.threshold_dbfs",
		"segmenter.keep_silence_ms", "segmenter.max_chunk_ms", "segmenter.min_chunk_ms",
		"pipeline.parallelism", "pipeline.backend_slots", "pipeline.chunk_timeout",
		"media.binary", "media.timeout", "media.max_attempts", "media.work_dir",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
