package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Shoptill"`
		Port int    `envconfig:"PORT" default:"3000"`
	}

	API struct {
		BaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:3000"`
		Timeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	}

	Search struct {
		Debounce time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"300ms"`
		MinChars int           `envconfig:"SEARCH_MIN_CHARS" default:"3"`
	}

	Draft struct {
		// Path overrides the default draft location under the user config
		// directory.
		Path string `envconfig:"DRAFT_PATH" default:""`
	}

	Catalogd struct {
		SeedDemo bool `envconfig:"CATALOGD_SEED_DEMO" default:"false"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
