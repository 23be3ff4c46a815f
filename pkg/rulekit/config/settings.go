package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/cognicore/rulekit/pkg/rulekit/internalerr"
)

// Sink names accepted by Settings.Sink.
const (
	SinkFile   = "file"
	SinkSQLite = "sqlite"
	SinkHTML   = "html"
)

// Settings are runtime knobs read from the environment. CLI flags override them.
type Settings struct {
	MaxSteps int    `env:"RULEKIT_MAX_STEPS" envDefault:"100"`
	LogPath  string `env:"RULEKIT_LOG_PATH" envDefault:"inference_log.txt"`
	Sink     string `env:"RULEKIT_SINK" envDefault:"file"`
	DBPath   string `env:"RULEKIT_DB" envDefault:"rulekit.db"`
	Parallel bool   `env:"RULEKIT_PARALLEL"`
}

// LoadSettings parses Settings from environment variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps %d", internalerr.ErrInvalidConfig, s.MaxSteps)
	}
	switch s.Sink {
	case SinkFile, SinkHTML:
		if s.LogPath == "" {
			return fmt.Errorf("%w: empty log path", internalerr.ErrInvalidConfig)
		}
	case SinkSQLite:
		if s.DBPath == "" {
			return fmt.Errorf("%w: empty db path", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sink %q", internalerr.ErrInvalidConfig, s.Sink)
	}
	return nil
}
