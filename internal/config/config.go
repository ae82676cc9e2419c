package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RecordingsDir string `toml:"recordings_dir"`
	MarkersDir    string `toml:"markers_dir"`
	LogDir        string `toml:"log_dir"`
}

// Capture describes the screen and audio inputs handed to ffmpeg.
type Capture struct {
	VideoFormat string `toml:"video_format"`
	VideoInput  string `toml:"video_input"`
	VideoSize   string `toml:"video_size"`
	AudioFormat string `toml:"audio_format"`
	AudioInput  string `toml:"audio_input"`
	Framerate   int    `toml:"framerate"`
}

// Encoder contains settings for the long-running recording process.
type Encoder struct {
	Binary              string `toml:"binary"`
	VideoCodec          string `toml:"video_codec"`
	Preset              string `toml:"preset"`
	CRF                 int    `toml:"crf"`
	AudioCodec          string `toml:"audio_codec"`
	AudioBitrate        string `toml:"audio_bitrate"`
	AudioSampleRate     int    `toml:"audio_sample_rate"`
	AudioChannels       int    `toml:"audio_channels"`
	Container           string `toml:"container"`
	Niceness            int    `toml:"niceness"`
	GracefulStopSeconds int    `toml:"graceful_stop_seconds"`
	DiagnosticLines     int    `toml:"diagnostic_lines"`
}

// Detection contains marker matching and debounce settings.
type Detection struct {
	Threshold     float64 `toml:"threshold"`
	CannyLow      float64 `toml:"canny_low"`
	CannyHigh     float64 `toml:"canny_high"`
	MinGapSeconds float64 `toml:"min_gap_seconds"`
	BackoffMillis int     `toml:"backoff_millis"`
}

// Highlights contains clip extraction and merge settings.
type Highlights struct {
	ClipSeconds      float64 `toml:"clip_seconds"`
	LeadInSeconds    float64 `toml:"lead_in_seconds"`
	LeadInMaxSeconds float64 `toml:"lead_in_max_seconds"`
	MergeVideoCodec  string  `toml:"merge_video_codec"`
	MergeAudioCodec  string  `toml:"merge_audio_codec"`
	FFprobeBinary    string  `toml:"ffprobe_binary"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Highlights     bool   `toml:"highlights"`
	Errors         bool   `toml:"errors"`
}

// API configures the read-only HTTP status API.
type API struct {
	// Bind is the listen address; empty disables the API.
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clipwatch.
//
// Configuration sections by subsystem:
//   - Paths: recordings, marker images, logs and runtime files
//   - Capture: screen/audio devices handed to ffmpeg
//   - Encoder: recording process codecs, container, and stop behaviour
//   - Detection: marker match threshold, edge filter, debounce gap
//   - Highlights: clip length, lead-in policy, merge codecs
//   - Notifications: ntfy push notification settings
//   - API: HTTP status endpoint bind address and bearer token
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Capture       Capture       `toml:"capture"`
	Encoder       Encoder       `toml:"encoder"`
	Detection     Detection     `toml:"detection"`
	Highlights    Highlights    `toml:"highlights"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// Load reads the config at path, or searches ~/.config/clipwatch/config.toml
// then ./clipwatch.toml when path is empty. A missing file yields defaults.
// It returns the normalized config, the path it settled on and whether that
// file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locateConfig(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation. The
// marker directory is created so users have an obvious place to drop images.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RecordingsDir, c.Paths.MarkersDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ContainerExt returns the file extension (without dot) for recordings and clips.
func (c *Config) ContainerExt() string {
	return c.Encoder.Container
}

// ContainerMuxer returns the ffmpeg muxer name matching the configured container.
func (c *Config) ContainerMuxer() string {
	if muxer, ok := containerMuxers[c.Encoder.Container]; ok {
		return muxer
	}
	return c.Encoder.Container
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Highlights.FFprobeBinary) == "" {
		return "ffprobe"
	}
	return c.Highlights.FFprobeBinary
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "clipwatch.sock")
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
