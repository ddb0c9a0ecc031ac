package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/sims/internal/logger"
)

const (
	storeFile   = "file"
	storeSQLite = "sqlite"
	storeRedis  = "redis"
	storeMemory = "memory"

	developmentAPIURL   = "http://localhost:8000"
	defaultSessionStore = storeFile
	defaultTimeout      = 10 * time.Second
	defaultLoggingLevel = logger.LevelWarn
	defaultEnvironment  = logger.EnvProduction
)

var sessionStores = []string{storeFile, storeSQLite, storeRedis, storeMemory}

type Config struct {
	// Backend base url, e.g. https://sims.example.org
	// Required in production
	APIURL string

	// Where the session is kept between runs: file, sqlite, redis or memory
	SessionStore string

	// Path of session file or sqlite database. OS config dir by default
	SessionPath string

	// Redis address for redis session store
	RedisAddr string

	// Per request timeout
	Timeout time.Duration

	LogLevel    string
	Environment string
}

func NewConfig() *Config {
	return &Config{
		SessionStore: defaultSessionStore,
		Timeout:      defaultTimeout,
		LogLevel:     defaultLoggingLevel,
		Environment:  defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"SIMS_API_URL":       setString(&c.APIURL),
		"SIMS_SESSION_STORE": setString(&c.SessionStore),
		"SIMS_SESSION_PATH":  setString(&c.SessionPath),
		"SIMS_REDIS_ADDR":    setString(&c.RedisAddr),
		"SIMS_TIMEOUT":       setDuration(&c.Timeout),
		"LOG_LEVEL":          setString(&c.LogLevel),
		"ENVIRONMENT":        setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s. Err: %w", key, err)
		}
	}
	return nil
}

// ParseFlags parses global flags and returns the command with its arguments
func (c *Config) ParseFlags(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("sims", pflag.ContinueOnError)
	fs.SetInterspersed(false)

	fs.StringVarP(&c.APIURL, "api-url", "u", c.APIURL, "Backend base url")
	fs.StringVar(&c.SessionStore, "session-store", c.SessionStore, "Session store (file, sqlite, redis, memory)")
	fs.StringVar(&c.SessionPath, "session-path", c.SessionPath, "Session file or sqlite database path")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address for redis session store")
	fs.DurationVarP(&c.Timeout, "timeout", "t", c.Timeout, "Request timeout")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func (c *Config) isDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case logger.EnvDevelopment, "development":
		return true
	default:
		return false
	}
}

// Backend url to use. Development falls back to the local backend
func (c *Config) BaseURL() string {
	if c.APIURL == "" && c.isDevelopment() {
		return developmentAPIURL
	}
	return c.APIURL
}

func (c *Config) Validate() error {
	var errs []error
	if c.BaseURL() == "" {
		errs = append(errs, errors.New("api url is required, set SIMS_API_URL or --api-url"))
	}
	if !slices.Contains(sessionStores, c.SessionStore) {
		errs = append(errs, fmt.Errorf("unknown session store %q, use one of %s", c.SessionStore, strings.Join(sessionStores, ", ")))
	}
	if c.SessionStore == storeRedis && c.RedisAddr == "" {
		errs = append(errs, errors.New("redis session store needs SIMS_REDIS_ADDR"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	return errors.Join(errs...)
}
