package config

import "runtime"

const (
	defaultConfigPath          = "~/.config/clipwatch/config.toml"
	defaultEnvFilePath         = "~/.config/clipwatch/clipwatch.env"
	defaultRecordingsDir       = "~/Videos/clipwatch"
	defaultMarkersDir          = "~/.config/clipwatch/markers"
	defaultLogDir              = "~/.local/share/clipwatch/logs"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultFramerate           = 30
	defaultVideoCodec          = "libx264"
	defaultPreset              = "veryfast"
	defaultCRF                 = 23
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "128k"
	defaultAudioSampleRate     = 44100
	defaultAudioChannels       = 2
	defaultContainer           = "flv"
	defaultNiceness            = -10
	defaultGracefulStopSeconds = 5
	defaultDiagnosticLines     = 200
	defaultThreshold           = 0.40
	defaultCannyLow            = 100
	defaultCannyHigh           = 200
	defaultMinGapSeconds       = 15
	defaultBackoffMillis       = 100
	defaultClipSeconds         = 10
	defaultLeadInSeconds       = 5
	defaultMergeVideoCodec     = "libx264"
	defaultMergeAudioCodec     = "aac"
	defaultRequestTimeout      = 10
	defaultAPIBind             = "127.0.0.1:7489"
)

var containerMuxers = map[string]string{
	"flv": "flv",
	"mkv": "matroska",
	"mp4": "mp4",
	"ts":  "mpegts",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingsDir: defaultRecordingsDir,
			MarkersDir:    defaultMarkersDir,
			LogDir:        defaultLogDir,
		},
		Capture: defaultCapture(runtime.GOOS),
		Encoder: Encoder{
			VideoCodec:          defaultVideoCodec,
			Preset:              defaultPreset,
			CRF:                 defaultCRF,
			AudioCodec:          defaultAudioCodec,
			AudioBitrate:        defaultAudioBitrate,
			AudioSampleRate:     defaultAudioSampleRate,
			AudioChannels:       defaultAudioChannels,
			Container:           defaultContainer,
			Niceness:            defaultNiceness,
			GracefulStopSeconds: defaultGracefulStopSeconds,
			DiagnosticLines:     defaultDiagnosticLines,
		},
		Detection: Detection{
			Threshold:     defaultThreshold,
			CannyLow:      defaultCannyLow,
			CannyHigh:     defaultCannyHigh,
			MinGapSeconds: defaultMinGapSeconds,
			BackoffMillis: defaultBackoffMillis,
		},
		Highlights: Highlights{
			ClipSeconds:     defaultClipSeconds,
			LeadInSeconds:   defaultLeadInSeconds,
			MergeVideoCodec: defaultMergeVideoCodec,
			MergeAudioCodec: defaultMergeAudioCodec,
			FFprobeBinary:   "ffprobe",
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Highlights:     true,
			Errors:         true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func defaultCapture(goos string) Capture {
	switch goos {
	case "darwin":
		// avfoundation carries screen and microphone in a single input.
		return Capture{VideoFormat: "avfoundation", VideoInput: "1:0", Framerate: defaultFramerate}
	case "windows":
		return Capture{
			VideoFormat: "gdigrab",
			VideoInput:  "desktop",
			AudioFormat: "dshow",
			AudioInput:  "audio=virtual-audio-capturer",
			Framerate:   defaultFramerate,
		}
	default:
		return Capture{
			VideoFormat: "x11grab",
			VideoInput:  ":0.0",
			AudioFormat: "pulse",
			AudioInput:  "default",
			Framerate:   defaultFramerate,
		}
	}
}
