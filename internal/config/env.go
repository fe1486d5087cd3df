package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read from the process environment and .env files.
const (
	EnvUserAgent  = "SEOSCAN_USER_AGENT"
	EnvDBDir      = "SEOSCAN_DB_DIR"
	EnvCrawlDelay = "SEOSCAN_CRAWL_DELAY"
)

// DefaultEnvFile is the dotenv file looked up in the current directory.
const DefaultEnvFile = ".env"

var envKeys = []string{EnvUserAgent, EnvDBDir, EnvCrawlDelay}

// ReadEnv returns the seoscan variables from the dotenv file at path,
// overlaid with the process environment. A missing file is not an error.
//
// Design decision: We parse with godotenv.Read instead of godotenv.Load
// so that reading a config never mutates the process environment, which
// keeps tests independent of each other.
func ReadEnv(path string) (map[string]string, error) {
	env := make(map[string]string)

	fileEnv, err := godotenv.Read(path)
	switch {
	case err == nil:
		for _, k := range envKeys {
			if v, ok := fileEnv[k]; ok {
				env[k] = v
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides configuration values with the given environment.
// Empty values are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	if v := env[EnvUserAgent]; v != "" {
		c.UserAgent = v
	}
	if v := env[EnvDBDir]; v != "" {
		c.DBDir = v
	}
	if v := env[EnvCrawlDelay]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidCrawlDelay, EnvCrawlDelay, v)
		}
		c.CrawlDelay = d
	}
	return nil
}
