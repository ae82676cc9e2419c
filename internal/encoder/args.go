package encoder

import (
	"strconv"
	"strings"

	"clipwatch/internal/config"
)

// BuildArgs renders the ffmpeg argument list that records the configured
// screen and audio inputs into outputPath.
func BuildArgs(cfg *config.Config, outputPath string) []string {
	capture := cfg.Capture
	enc := cfg.Encoder

	args := []string{"-hide_banner", "-loglevel", "warning", "-y"}

	args = append(args, "-f", capture.VideoFormat)
	if capture.Framerate > 0 {
		args = append(args, "-framerate", strconv.Itoa(capture.Framerate))
	}
	if size := strings.TrimSpace(capture.VideoSize); size != "" {
		args = append(args, "-video_size", size)
	}
	if capture.VideoFormat == "dshow" {
		args = append(args, "-rtbufsize", "512M")
	}
	args = append(args, "-i", capture.VideoInput)

	if capture.AudioFormat != "" {
		args = append(args, "-f", capture.AudioFormat, "-i", capture.AudioInput)
	}

	args = append(args, "-c:v", enc.VideoCodec)
	if enc.Preset != "" {
		args = append(args, "-preset", enc.Preset)
	}
	if strings.HasPrefix(enc.VideoCodec, "libx26") {
		args = append(args, "-crf", strconv.Itoa(enc.CRF))
	}
	args = append(args, "-pix_fmt", "yuv420p", "-fps_mode", "cfr")

	args = append(args, "-c:a", enc.AudioCodec)
	if enc.AudioBitrate != "" {
		args = append(args, "-b:a", enc.AudioBitrate)
	}
	args = append(args,
		"-ar", strconv.Itoa(enc.AudioSampleRate),
		"-ac", strconv.Itoa(enc.AudioChannels),
		"-f", cfg.ContainerMuxer(),
		outputPath,
	)
	return args
}
