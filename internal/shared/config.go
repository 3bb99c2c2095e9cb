package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// MinViableSize is the size below which an acquired or transcoded file is treated as corrupt.
const MinViableSize int64 = 10 * 1024

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Download DownloadConfig `toml:"download"`
	Tools    ToolsConfig    `toml:"tools"`
	Metadata MetadataConfig `toml:"metadata"`
	Database DatabaseConfig `toml:"database"`
}

// DownloadConfig controls the worker pool and the retry policy.
type DownloadConfig struct {
	OutputDir     string  `toml:"output_dir"`
	TempDir       string  `toml:"temp_dir"`
	Workers       int     `toml:"workers"`
	Attempts      int     `toml:"attempts"`
	BackoffBase   float64 `toml:"backoff_base"` // Seconds, raised to the attempt number
	MaxJitter     float64 `toml:"max_jitter"`   // Seconds
	MinViableSize int64   `toml:"min_viable_size"`
	AudioFormat   string  `toml:"audio_format"`
	AudioBitrate  string  `toml:"audio_bitrate"`
}

// ToolsConfig names the external binaries. Bare names are resolved through PATH.
type ToolsConfig struct {
	YtDlp   string `toml:"ytdlp"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// MetadataConfig toggles enrichment and points at the lookup services.
type MetadataConfig struct {
	EmbedTags         bool    `toml:"embed_tags"`
	EmbedCover        bool    `toml:"embed_cover"`
	FetchLyrics       bool    `toml:"fetch_lyrics"`
	LyricsURL         string  `toml:"lyrics_url"`
	ArtworkURL        string  `toml:"artwork_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	UserAgent         string  `toml:"user_agent"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Timeout returns the lookup timeout as a [time.Duration].
func (m MetadataConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Validate checks that numeric settings are usable.
func (c *Config) Validate() error {
	if c.Download.Workers < 1 {
		return fmt.Errorf("%w: download.workers must be at least 1, got %d", ErrInvalidConfig, c.Download.Workers)
	}
	if c.Download.Attempts < 1 {
		return fmt.Errorf("%w: download.attempts must be at least 1, got %d", ErrInvalidConfig, c.Download.Attempts)
	}
	if c.Download.BackoffBase < 0 || c.Download.MaxJitter < 0 {
		return fmt.Errorf("%w: backoff settings must not be negative", ErrInvalidConfig)
	}
	if c.Download.OutputDir == "" {
		return fmt.Errorf("%w: download.output_dir is required", ErrInvalidConfig)
	}
	if f := c.Download.AudioFormat; f != "" && f != "mp3" {
		return fmt.Errorf("%w: download.audio_format %q is not supported, only mp3", ErrInvalidConfig, f)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads the config at path when it exists and falls back to the defaults otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
