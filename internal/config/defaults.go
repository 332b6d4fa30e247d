package config

const (
	defaultDataDir            = "~/.local/share/docent"
	defaultAssetsDir          = "~/.local/share/docent/assets"
	defaultLogDir             = "~/.local/share/docent/logs"
	defaultSocketPath         = "~/.local/share/docent/docent.sock"
	defaultCaptureDevice      = "/dev/video0"
	defaultFacing             = "front"
	defaultAspect             = "3:4"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultSessionIdleTimeout = 900
	defaultReclaimInterval    = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			AssetsDir:  defaultAssetsDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Capture: Capture{
			Device:        defaultCaptureDevice,
			DefaultFacing: defaultFacing,
			MirrorFront:   true,
			DefaultAspect: defaultAspect,
		},
		Runtime: Runtime{
			SessionIdleTimeout: defaultSessionIdleTimeout,
			ReclaimInterval:    defaultReclaimInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
