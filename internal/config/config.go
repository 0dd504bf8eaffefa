// Package config loads the Stagehand HCL configuration, with
// environment-variable overrides for the values that are usually kept
// out of files (credentials, secrets).
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/mediaops/stagehand/pkg/pcloud"
	"github.com/mediaops/stagehand/pkg/worksection"
)

// Config is the top-level Stagehand configuration.
//
// Example (HCL):
//
//	log_level   = "info"
//	listen_addr = "127.0.0.1:8090"
//	root_folder = "/WorksectionProjects"
//
//	webhook {
//	  path     = "/webhook"
//	  username = "worksection"
//	  password = env var STAGEHAND_WEBHOOK_PASSWORD
//	}
//
//	tracker {
//	  base_url   = "https://myaccount.worksection.com/api/admin/"
//	  api_secret = env var WORKSECTION_API_SECRET
//	}
//
//	storage {
//	  base_url = "https://api.pcloud.com"
//	  username = "ops@example.com"
//	  password = env var PCLOUD_PASSWORD
//	}
type Config struct {
	// LogLevel is the hclog level name. Default: "info".
	LogLevel string `hcl:"log_level,optional" env:"STAGEHAND_LOG_LEVEL"`

	// ListenAddr is the webhook listener address.
	// Default: "127.0.0.1:8090".
	ListenAddr string `hcl:"listen_addr,optional" env:"STAGEHAND_LISTEN_ADDR"`

	// RootFolder is the parent of all provisioned project folders.
	// Default: "/WorksectionProjects".
	RootFolder string `hcl:"root_folder,optional" env:"STAGEHAND_ROOT_FOLDER"`

	// Webhook configures the inbound webhook endpoint.
	Webhook *Webhook `hcl:"webhook,block"`

	// Tracker configures the Worksection client.
	Tracker *worksection.Config `hcl:"tracker,block"`

	// Storage configures the pCloud client.
	Storage *pcloud.Config `hcl:"storage,block"`
}

// Webhook configures the inbound webhook endpoint. When Username and
// Password are both set the endpoint requires Basic Auth.
type Webhook struct {
	// Path the tracker posts deliveries to. Default: "/webhook".
	Path string `hcl:"path,optional" env:"STAGEHAND_WEBHOOK_PATH"`

	Username string `hcl:"username,optional" env:"STAGEHAND_WEBHOOK_USERNAME"`
	Password string `hcl:"password,optional" env:"STAGEHAND_WEBHOOK_PASSWORD"`

	// QueueSize bounds the number of deliveries waiting for
	// processing. Default: 64.
	QueueSize int `hcl:"queue_size,optional"`
}

// Load reads and parses the configuration file at path, applies
// environment overrides and defaults, and validates the result.
func Load(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := hclsimple.Decode(path, src, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Environment variables override file values.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}
	if err := env.Parse(cfg.Webhook); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}
	if cfg.Tracker != nil {
		if err := env.Parse(cfg.Tracker); err != nil {
			return nil, fmt.Errorf("error applying environment overrides: %w", err)
		}
	}
	if cfg.Storage != nil {
		if err := env.Parse(cfg.Storage); err != nil {
			return nil, fmt.Errorf("error applying environment overrides: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8090"
	}
	if c.RootFolder == "" {
		c.RootFolder = pcloud.DefaultRootFolder
	}
	if c.Webhook == nil {
		c.Webhook = &Webhook{}
	}
	if c.Webhook.Path == "" {
		c.Webhook.Path = "/webhook"
	}
}

// Validate checks the configuration is complete enough to start.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.Tracker, validation.Required),
		validation.Field(&c.Storage, validation.Required),
	)
}
