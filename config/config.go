package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InsecureDefaultJWTSecret is the fallback signing key. Anything minting
// tokens with it is forgeable; main logs a loud warning when it is in use.
const InsecureDefaultJWTSecret = "dev_only_insecure_jwt_secret_change_me"

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// SessionStore selects the session backend: "memory" or "redis".
	SessionStore string `mapstructure:"SESSION_STORE"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	// SessionConflictPolicy is "reject" or "replace".
	SessionConflictPolicy string `mapstructure:"SESSION_CONFLICT_POLICY"`

	OCREndpoint string `mapstructure:"OCR_ENDPOINT"`
	LLMEndpoint string `mapstructure:"LLM_ENDPOINT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// UsingInsecureJWTSecret reports whether the signing key is still the
// built-in default.
func (c *ServerConfig) UsingInsecureJWTSecret() bool {
	return c.JWTSecret == InsecureDefaultJWTSecret
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mediqr/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/mediqr_dev")
	v.SetDefault("MONGO_DB_NAME", "mediqr_dev")
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("JWT_SECRET", InsecureDefaultJWTSecret)
	v.SetDefault("SESSION_CONFLICT_POLICY", "reject")
	v.SetDefault("OCR_ENDPOINT", "http://localhost:8090/ocr")
	v.SetDefault("LLM_ENDPOINT", "http://localhost:8091/summarize")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "mediqr-server")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env vars and defaults cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
