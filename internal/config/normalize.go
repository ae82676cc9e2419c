package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeEncoder()
	c.normalizeHighlights()
	c.normalizeNotifications()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		c.Paths.RecordingsDir = defaultRecordingsDir
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MarkersDir) == "" {
		c.Paths.MarkersDir = defaultMarkersDir
	}
	if c.Paths.MarkersDir, err = expandPath(c.Paths.MarkersDir); err != nil {
		return fmt.Errorf("paths.markers_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.VideoFormat = strings.TrimSpace(c.Capture.VideoFormat)
	c.Capture.VideoInput = strings.TrimSpace(c.Capture.VideoInput)
	c.Capture.VideoSize = strings.TrimSpace(c.Capture.VideoSize)
	c.Capture.AudioFormat = strings.TrimSpace(c.Capture.AudioFormat)
	c.Capture.AudioInput = strings.TrimSpace(c.Capture.AudioInput)
	if c.Capture.Framerate == 0 {
		c.Capture.Framerate = defaultFramerate
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if c.Encoder.Binary == "" {
		if value, ok := os.LookupEnv("CLIPWATCH_FFMPEG"); ok {
			c.Encoder.Binary = strings.TrimSpace(value)
		}
	}
	c.Encoder.VideoCodec = strings.TrimSpace(c.Encoder.VideoCodec)
	if c.Encoder.VideoCodec == "" {
		c.Encoder.VideoCodec = defaultVideoCodec
	}
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
	c.Encoder.AudioCodec = strings.TrimSpace(c.Encoder.AudioCodec)
	if c.Encoder.AudioCodec == "" {
		c.Encoder.AudioCodec = defaultAudioCodec
	}
	c.Encoder.AudioBitrate = strings.TrimSpace(c.Encoder.AudioBitrate)
	c.Encoder.Container = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Encoder.Container)), ".")
	if c.Encoder.Container == "" {
		c.Encoder.Container = defaultContainer
	}
	if c.Encoder.DiagnosticLines <= 0 {
		c.Encoder.DiagnosticLines = defaultDiagnosticLines
	}
}

func (c *Config) normalizeHighlights() {
	c.Highlights.MergeVideoCodec = strings.TrimSpace(c.Highlights.MergeVideoCodec)
	if c.Highlights.MergeVideoCodec == "" {
		c.Highlights.MergeVideoCodec = defaultMergeVideoCodec
	}
	c.Highlights.MergeAudioCodec = strings.TrimSpace(c.Highlights.MergeAudioCodec)
	if c.Highlights.MergeAudioCodec == "" {
		c.Highlights.MergeAudioCodec = defaultMergeAudioCodec
	}
	c.Highlights.FFprobeBinary = strings.TrimSpace(c.Highlights.FFprobeBinary)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CLIPWATCH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("CLIPWATCH_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
