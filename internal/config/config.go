package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lojasmm/wabot/internal/whatsapp"
)

// ErrConfigurationMissing is returned when a value needed for any outbound call is absent.
var ErrConfigurationMissing = whatsapp.ErrConfigurationMissing

type Config struct {
	WAGraphURL      string        `env:"WA_GRAPH_URL" envDefault:"https://graph.facebook.com/v21.0"`
	WAPhoneNumberID string        `env:"WA_PHONE_NUMBER_ID"`
	WAAccessToken   string        `env:"WA_ACCESS_TOKEN"`
	WAVerifyToken   string        `env:"WA_VERIFY_TOKEN"`
	WAAppSecret     string        `env:"WA_APP_SECRET"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	CommandPrefix string   `env:"COMMAND_PREFIX" envDefault:"!"`
	OwnerNumbers  []string `env:"OWNER_NUMBERS" envSeparator:","`
	RepliesFile   string   `env:"REPLIES_FILE"`

	MediaSweepCron string        `env:"MEDIA_SWEEP_CRON" envDefault:"*/30 * * * *"`
	MediaOrphanAge time.Duration `env:"MEDIA_ORPHAN_AGE" envDefault:"1h"`

	Logging LoggingConfig

	Port    string `env:"PORT" envDefault:"8080"`
	DataDir string `env:"DATA_DIR" envDefault:"."`
}

// LoggingConfig controls log output format and verbosity.
type LoggingConfig struct {
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates it.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads .env and the environment without checking credentials.
func Parse() (*Config, error) {
	// .env is optional, env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	if cfg.WAVerifyToken == "" {
		token, err := randomHex(16)
		if err != nil {
			return nil, fmt.Errorf("generating verify token: %w", err)
		}
		cfg.WAVerifyToken = token
	}
	return &cfg, nil
}

// Validate fails fast when credentials or the API base are absent.
func (c *Config) Validate() error {
	for _, req := range []struct {
		name, val string
	}{
		{"WA_GRAPH_URL", c.WAGraphURL},
		{"WA_PHONE_NUMBER_ID", c.WAPhoneNumberID},
		{"WA_ACCESS_TOKEN", c.WAAccessToken},
	} {
		if req.val == "" {
			return fmt.Errorf("%w: required env var %s is not set", ErrConfigurationMissing, req.name)
		}
	}
	return nil
}

// DBPath is the bbolt file inside DataDir.
func (c *Config) DBPath() string {
	return c.DataDir + "/wabot.db"
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
