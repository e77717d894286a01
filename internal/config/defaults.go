package config

import "lingsync/internal/services/lingq"

const (
	defaultAnkiURL             = "http://localhost:8765"
	defaultAnkiRequestTimeout  = 10
	defaultLingQBaseURL        = "https://www.lingq.com"
	defaultLingQRequestTimeout = 30
	defaultImportTag           = "lingq"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Anki: Anki{
			URL:            defaultAnkiURL,
			RequestTimeout: defaultAnkiRequestTimeout,
		},
		LingQ: LingQ{
			BaseURL:        defaultLingQBaseURL,
			RequestTimeout: defaultLingQRequestTimeout,
		},
		Import: Import{
			Tags:         []string{defaultImportTag},
			BatchSubmit:  true,
			StatusFilter: lingq.StatusNew,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
