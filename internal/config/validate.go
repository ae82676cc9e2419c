package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateHighlights(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.VideoFormat == "" {
		return errors.New("capture.video_format must be set (for example x11grab, gdigrab, avfoundation)")
	}
	if c.Capture.VideoInput == "" {
		return errors.New("capture.video_input must be set")
	}
	if c.Capture.AudioFormat != "" && c.Capture.AudioInput == "" {
		return errors.New("capture.audio_input must be set when capture.audio_format is configured")
	}
	if c.Capture.Framerate <= 0 {
		return errors.New("capture.framerate must be positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if _, ok := containerMuxers[c.Encoder.Container]; !ok {
		return fmt.Errorf("encoder.container %q is not supported (use one of %s)", c.Encoder.Container, strings.Join(supportedContainers(), ", "))
	}
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51")
	}
	if c.Encoder.Niceness < -20 || c.Encoder.Niceness > 19 {
		return errors.New("encoder.niceness must be between -20 and 19")
	}
	if err := ensurePositiveMap(map[string]int{
		"encoder.graceful_stop_seconds": c.Encoder.GracefulStopSeconds,
		"encoder.audio_sample_rate":     c.Encoder.AudioSampleRate,
		"encoder.audio_channels":        c.Encoder.AudioChannels,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.Threshold <= 0 || c.Detection.Threshold >= 1 {
		return errors.New("detection.threshold must be between 0 and 1 (exclusive)")
	}
	if c.Detection.CannyLow <= 0 || c.Detection.CannyHigh <= 0 {
		return errors.New("detection.canny_low and detection.canny_high must be positive")
	}
	if c.Detection.CannyLow >= c.Detection.CannyHigh {
		return errors.New("detection.canny_low must be lower than detection.canny_high")
	}
	if c.Detection.MinGapSeconds < 0 {
		return errors.New("detection.min_gap_seconds must be >= 0")
	}
	if c.Detection.BackoffMillis <= 0 {
		return errors.New("detection.backoff_millis must be positive")
	}
	return nil
}

func (c *Config) validateHighlights() error {
	if c.Highlights.ClipSeconds <= 0 {
		return errors.New("highlights.clip_seconds must be positive")
	}
	if c.Highlights.LeadInSeconds < 0 {
		return errors.New("highlights.lead_in_seconds must be >= 0")
	}
	if c.Highlights.LeadInMaxSeconds != 0 && c.Highlights.LeadInMaxSeconds < c.Highlights.LeadInSeconds {
		return errors.New("highlights.lead_in_max_seconds must be 0 (fixed lead-in) or >= highlights.lead_in_seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func supportedContainers() []string {
	names := make([]string, 0, len(containerMuxers))
	for name := range containerMuxers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
