package config

import (
	goerrors "errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Prefix is prepended to every environment variable name, e.g. WALLET_SESSION_SERVICE_URL.
const Prefix = "WALLET_SESSION"

const DefaultServiceURL = "https://test-crypto-wallet-backend-production.up.railway.app"

// Config holds the settings shared by the server, the mobile binding and the example.
type Config struct {
	ServiceURL      string        `envconfig:"SERVICE_URL" default:"https://test-crypto-wallet-backend-production.up.railway.app" validate:"required,url"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s" validate:"gte=0"`
	BreakerEnabled  bool          `envconfig:"BREAKER_ENABLED" default:"false"`
	RateLimit       int           `envconfig:"RATE_LIMIT" default:"0" validate:"gte=0"`
	Mocked          bool          `envconfig:"MOCKED" default:"false"`
	MockedWallets   int           `envconfig:"MOCKED_WALLETS" default:"3" validate:"min=1"`
	SystemClipboard bool          `envconfig:"SYSTEM_CLIPBOARD" default:"false"`
	LogEnabled      bool          `envconfig:"LOG_ENABLED" default:"true"`
	LogFile         string        `envconfig:"LOG_FILE"`
}

var validate = validator.New()

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		errs := err.(validator.ValidationErrors)
		return errors.Wrap(goerrors.Join(errs), "invalid config")
	}
	return nil
}
