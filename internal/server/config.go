package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/gymqrs/backend/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

func LoadConfig() (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./config/server")

	setDefaults(v)

	// GYMQRS_AUTH_ACCESS_TOKEN_SECRET overrides auth.access_token_secret, etc.
	v.SetEnvPrefix("GYMQRS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config config.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Load environment-specific configurations
	if envSettings := v.GetStringMap(fmt.Sprintf("server.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("server.%s", env), &config.Server); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("auth.access_token_ttl", "30m")
	v.SetDefault("auth.refresh_token_ttl", "168h")

	v.SetDefault("otp.ttl", "5m")
	v.SetDefault("otp.code_length", 6)

	v.SetDefault("access_code.default_batch_size", 10)
	v.SetDefault("access_code.attempt_multiplier", 3)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.auth_requests_per_minute", 10)
	v.SetDefault("rate_limit.window", "1m")
}
