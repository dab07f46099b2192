package config

const (
	defaultBind            = "127.0.0.1:5000"
	defaultCORSOrigin      = "https://gif-generator-six-alpha.vercel.app"
	defaultMaxBodyBytes    = 10 << 20
	defaultUpstreamTimeout = 120
	defaultArtifactDir     = "artifacts"
	defaultArtifactMaxAge  = 60
	defaultClientServerURL = "http://localhost:5000"
	defaultClientTimeout   = 180
	defaultCameraDevice    = "/dev/video0"
	defaultFFmpegBinary    = "ffmpeg"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			CORSOrigin:   defaultCORSOrigin,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		Upstream: Upstream{
			TimeoutSeconds: defaultUpstreamTimeout,
		},
		Artifacts: Artifacts{
			Dir:           defaultArtifactDir,
			MaxAgeMinutes: defaultArtifactMaxAge,
		},
		Client: Client{
			ServerURL:      defaultClientServerURL,
			TimeoutSeconds: defaultClientTimeout,
			CameraDevice:   defaultCameraDevice,
			FFmpegBinary:   defaultFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
