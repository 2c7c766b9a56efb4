package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/product-search/pkg/client"
	"github.com/Sternrassler/product-search/pkg/controller"
	"github.com/Sternrassler/product-search/pkg/logging"
	"github.com/Sternrassler/product-search/pkg/pagination"
)

// Environment variables read on startup.
const (
	envBaseURL  = "PRODUCT_SEARCH_BASE_URL"
	envLogLevel = "PRODUCT_SEARCH_LOG_LEVEL"
)

const defaultBaseURL = "http://localhost:8080"

// settings is the resolved configuration of one invocation.
type settings struct {
	BaseURL   string         `yaml:"base_url"`
	UserAgent string         `yaml:"user_agent"`
	Timeout   time.Duration  `yaml:"timeout"`
	Log       logging.Config `yaml:"log"`

	Browse struct {
		Debounce  time.Duration `yaml:"debounce"`
		DropStale bool          `yaml:"drop_stale"`
	} `yaml:"browse"`

	Export struct {
		Concurrency int `yaml:"concurrency"`
		MaxPages    int `yaml:"max_pages"`
	} `yaml:"export"`
}

func defaultSettings() settings {
	cc := client.DefaultConfig(defaultBaseURL)
	s := settings{
		BaseURL:   cc.BaseURL,
		UserAgent: cc.UserAgent,
		Timeout:   cc.Timeout,
		Log:       logging.DefaultConfig(),
	}
	s.Browse.Debounce = controller.DefaultConfig().Debounce
	s.Export.Concurrency = pagination.DefaultConfig().MaxConcurrency
	return s
}

// loadFile overlays the YAML file at path onto s. A missing file is only an
// error when the path was given explicitly.
func loadFile(s *settings, path string, explicit bool) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto s.
func applyEnv(s *settings, lookupEnv func(string) (string, bool)) error {
	s.BaseURL = getEnv(lookupEnv, envBaseURL, s.BaseURL)

	if v := getEnv(lookupEnv, envLogLevel, ""); v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envLogLevel, err)
		}
		s.Log.Level = level
	}
	return nil
}

func getEnv(lookupEnv func(string) (string, bool), key, defaultValue string) string {
	if value, ok := lookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (s settings) clientConfig() client.Config {
	cfg := client.DefaultConfig(s.BaseURL)
	if s.UserAgent != "" {
		cfg.UserAgent = s.UserAgent
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	return cfg
}
