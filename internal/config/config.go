package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kiliankoe/faceoff/internal/game"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// ScoringProvider picks the emotion service: "cognitive" or "ollama".
	ScoringProvider string `env:"SCORING_PROVIDER" envDefault:"cognitive"`
	EmotionAPIKey   string `env:"EMOTION_API_KEY"`
	EmotionEndpoint string `env:"EMOTION_ENDPOINT" envDefault:"https://westus.api.cognitive.microsoft.com"`
	OllamaHost      string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OllamaModel     string `env:"OLLAMA_MODEL" envDefault:"llava"`

	Player1Name          string        `env:"PLAYER1_NAME" envDefault:"Player 1"`
	Player2Name          string        `env:"PLAYER2_NAME" envDefault:"Player 2"`
	PhotoRevealAnimation time.Duration `env:"PHOTO_REVEAL_ANIMATION" envDefault:"400ms"`
	ScoreRevealAnimation time.Duration `env:"SCORE_REVEAL_ANIMATION" envDefault:"400ms"`

	HostUser      string `env:"HOST_USER"`
	HostPass      string `env:"HOST_PASS"`
	SingleSession bool   `env:"SINGLE_SESSION" envDefault:"true"`
	// DemoMode enables the sample photo hook.
	DemoMode bool `env:"DEMO_MODE"`

	MaxPhotoBytes int64  `env:"MAX_PHOTO_BYTES" envDefault:"8388608"`
	OTelEndpoint  string `env:"OTEL_ENDPOINT"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

func FromEnv() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.ScoringProvider = strings.ToLower(strings.TrimSpace(c.ScoringProvider))
	switch c.ScoringProvider {
	case "cognitive", "ollama":
	default:
		return Config{}, fmt.Errorf("unknown SCORING_PROVIDER %q", c.ScoringProvider)
	}
	if c.MaxPhotoBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_PHOTO_BYTES must be positive, got %d", c.MaxPhotoBytes)
	}
	return c, nil
}

// HostAuth reports whether host routes are protected by basic auth.
func (c Config) HostAuth() bool { return c.HostUser != "" && c.HostPass != "" }

// Session is the per-room configuration derived from the environment.
func (c Config) Session() game.SessionConfig {
	return game.SessionConfig{
		PlayerNames:          [2]string{c.Player1Name, c.Player2Name},
		PhotoRevealAnimation: c.PhotoRevealAnimation,
		ScoreRevealAnimation: c.ScoreRevealAnimation,
	}
}
