package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	APIPrefix                 string        `koanf:"api_prefix" default:"/api"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	Environment               string        `koanf:"environment"`
	RequestBodyLimit          string        `koanf:"request_body_limit" default:"1M"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"5000"`
}

const (
	configFileENV = "CONFIG_FILE"
	envFileENV    = "ENV_FILE"

	defaultConfigFile = "./config.yaml"
	defaultEnvFile    = ".env"
)

// New loads the configuration. Later sources win: struct defaults, then the
// YAML file at $CONFIG_FILE, then non-empty environment variables (including
// anything in the .env file that isn't already set in the environment).
func New() (*Config, error) {
	envFile := os.Getenv(envFileENV)
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if fileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "failed to load env file %s", envFile)
		}
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if fileExists(configFile) {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	// Empty variables are treated as unset so they can't clobber the file or
	// the defaults.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.WithStack(err)
	}
	// PORT is what most hosting platforms hand us.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SERVER_PORT") == "" {
		if err := k.Set("server_port", port); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.Environment == "development" {
		loadDevelopmentConfig(cfg)
	}

	if err := checkRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns the defaults with an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = "test"
	cfg.ServerHost = "127.0.0.1"
	return cfg
}

// Address is the host:port the server listens on.
func (cfg *Config) Address() string {
	return fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
}

func checkRequired(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := field.Tag.Get("koanf")
			return errors.Errorf("missing required config: %s (%s)", strcase.ToScreamingSnake(key), key)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
