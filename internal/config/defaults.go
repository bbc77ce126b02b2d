package config

const (
	defaultPort              = 8080
	defaultRateLimit         = 60
	defaultLocale            = "th"
	defaultReadHeaderTimeout = 20
	defaultShutdownTimeout   = 10
	defaultYtdlpPath         = "yt-dlp"
	defaultExtractTimeout    = 60
	defaultMalformedPolicy   = "last"
	defaultCacheTTL          = 300
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Port:                     defaultPort,
			RateLimit:                defaultRateLimit,
			Locale:                   defaultLocale,
			ReadHeaderTimeoutSeconds: defaultReadHeaderTimeout,
			ShutdownTimeoutSeconds:   defaultShutdownTimeout,
		},
		Extract: Extract{
			YtdlpPath:      defaultYtdlpPath,
			TimeoutSeconds: defaultExtractTimeout,
		},
		Picker: Picker{
			Malformed: defaultMalformedPolicy,
		},
		Cache: Cache{
			TTLSeconds: defaultCacheTTL,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
