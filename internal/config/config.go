package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ONLIBRY"

type Config struct {
	// Environment
	GoEnv string `mapstructure:"go_env" validate:"required"`

	// Resource service
	APIURL         string        `mapstructure:"api_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	RateLimit      float64       `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst      int           `mapstructure:"rate_burst" validate:"gte=1"`

	// Credentials
	KeyringService string `mapstructure:"keyring_service" validate:"required"`

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`
}

var defaults = map[string]any{
	"go_env":          "development",
	"api_url":         "http://localhost:8000/api/",
	"request_timeout": 15 * time.Second,
	"rate_limit":      10.0,
	"rate_burst":      20,
	"keyring_service": "onlibry-cli",
	"log_level":       "info",
	"log_format":      "text",
}

// LoadConfig loads configuration from .env, ONLIBRY_* environment variables and,
// when cfgFile is not empty, a config file. Environment wins over the file.
func LoadConfig(cfgFile string) (*Config, error) {
	// a missing .env is fine, the process environment is still read
	_ = godotenv.Load(".env")

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", cfgFile, err)
		}
	}

	config := &Config{
		GoEnv:          v.GetString("go_env"),
		APIURL:         v.GetString("api_url"),
		RequestTimeout: v.GetDuration("request_timeout"),
		RateLimit:      v.GetFloat64("rate_limit"),
		RateBurst:      v.GetInt("rate_burst"),
		KeyringService: v.GetString("keyring_service"),
		LogLevel:       strings.ToLower(v.GetString("log_level")),
		LogFormat:      strings.ToLower(v.GetString("log_format")),
	}
	if !strings.HasSuffix(config.APIURL, "/") {
		config.APIURL += "/"
	}
	return config, nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", envName(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

var fieldEnv = map[string]string{
	"GoEnv":          "GO_ENV",
	"APIURL":         "API_URL",
	"RequestTimeout": "REQUEST_TIMEOUT",
	"RateLimit":      "RATE_LIMIT",
	"RateBurst":      "RATE_BURST",
	"KeyringService": "KEYRING_SERVICE",
	"LogLevel":       "LOG_LEVEL",
	"LogFormat":      "LOG_FORMAT",
}

func envName(field string) string {
	if name, ok := fieldEnv[field]; ok {
		return envPrefix + "_" + name
	}
	return field
}
