package config

import "time"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// AuthConfig carries the token signing material. Access and refresh tokens
// are signed with separate secrets so a leaked access secret cannot be
// replayed as a refresh token.
type AuthConfig struct {
	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
}

type OTPConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CodeLength int           `mapstructure:"code_length"`
}

type AccessCodeConfig struct {
	DefaultBatchSize  int `mapstructure:"default_batch_size"`
	AttemptMultiplier int `mapstructure:"attempt_multiplier"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	TLS      bool   `mapstructure:"tls"`
}

type RateLimitConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	RedisAddr             string        `mapstructure:"redis_addr"`
	RequestsPerMinute     int           `mapstructure:"requests_per_minute"`
	AuthRequestsPerMinute int           `mapstructure:"auth_requests_per_minute"`
	Window                time.Duration `mapstructure:"window"`
}

type AppConfig struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	OTP        OTPConfig        `mapstructure:"otp"`
	AccessCode AccessCodeConfig `mapstructure:"access_code"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}
