package config

// TailSeekFactor is how far into a stream a retry-loop recovery seeks
// before giving playback one last chance to end cleanly.
const TailSeekFactor = 0.999

const (
	defaultStateDir          = "~/.local/share/encore"
	defaultLogDir            = "~/.local/share/encore/logs"
	defaultEngineKind        = "mpv"
	defaultEngineBinary      = "mpv"
	defaultSocketDir         = "~/.local/share/encore/sockets"
	defaultStartupTimeout    = 10
	defaultRequestTimeout    = 5
	defaultHeartbeatInterval = 1
	defaultSaveInterval      = 5
	defaultCompletedPercent  = 95.0
	defaultMaxRetries        = 3
	defaultRetryDelayMS      = 2000
	defaultEndEpsilonMS      = 1000
	defaultNearEndWindowMS   = 5000
	defaultLoopWindowMS      = 10000
	defaultSkipAheadMS       = 5000
	defaultSkipAheadLoopMS   = 15000
	defaultCompletionGraceMS = 1200
	defaultCatalogBaseURL    = "https://api.themoviedb.org/3"
	defaultCatalogLanguage   = "en-US"
	defaultResolverTimeout   = 10
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Engine: Engine{
			Kind:           defaultEngineKind,
			Binary:         defaultEngineBinary,
			SocketDir:      defaultSocketDir,
			StartupTimeout: defaultStartupTimeout,
		},
		Notifier: Notifier{
			RequestTimeout:    defaultRequestTimeout,
			HeartbeatInterval: defaultHeartbeatInterval,
		},
		Resume: Resume{
			SaveInterval:       defaultSaveInterval,
			CompletedThreshold: defaultCompletedPercent,
		},
		Playback: Playback{
			MaxRetries:      defaultMaxRetries,
			RetryDelayMS:    defaultRetryDelayMS,
			EndEpsilonMS:    defaultEndEpsilonMS,
			NearEndWindowMS: defaultNearEndWindowMS,
			LoopWindowMS:    defaultLoopWindowMS,
			SkipAheadMS:     defaultSkipAheadMS,
			SkipAheadLoopMS: defaultSkipAheadLoopMS,
			CompletionGrace: defaultCompletionGraceMS,
		},
		Catalog: Catalog{
			BaseURL:  defaultCatalogBaseURL,
			Language: defaultCatalogLanguage,
		},
		Resolver: Resolver{
			RequestTimeout: defaultResolverTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
