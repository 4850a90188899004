package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration, loaded from the environment.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	DatabaseFile string `env:"ONBOARD_DATABASE_FILE" envDefault:"onboard.db"`

	// BaseURL is the public web app origin embedded in accept links.
	BaseURL string `env:"ONBOARD_BASE_URL" envDefault:"http://localhost:3000"`

	// SessionSecret verifies bearer tokens minted by the platform session
	// service. The onboarding service only verifies, never signs.
	SessionSecret string `env:"ONBOARD_SESSION_SECRET,required"`
	SessionIssuer string `env:"ONBOARD_SESSION_ISSUER" envDefault:"lettings-sessions"`

	// ChannelOrder is the authoritative delivery fallback order.
	ChannelOrder []string `env:"NOTIFY_CHANNEL_ORDER" envDefault:"queue,provider,demo" envSeparator:","`

	// Worker fleet for the queue channel.
	Workers     int `env:"NOTIFY_WORKERS" envDefault:"4"`
	QueueBuffer int `env:"NOTIFY_QUEUE_BUFFER" envDefault:"64"`

	// SMTP relay backing the queue channel. When unset the queue falls back
	// to a log sender so the fleet still runs in demo deployments.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Transactional email provider for the direct HTTPS channel. The channel
	// is skipped when no API key is configured.
	ProviderAPIKey   string `env:"PROVIDER_API_KEY"`
	ProviderEndpoint string `env:"PROVIDER_ENDPOINT"`
	ProviderFrom     string `env:"PROVIDER_FROM"`
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	for _, ch := range cfg.ChannelOrder {
		switch ch {
		case "queue", "provider", "demo":
		default:
			return Config{}, fmt.Errorf("unknown notify channel %q in NOTIFY_CHANNEL_ORDER", ch)
		}
	}
	return cfg, nil
}
