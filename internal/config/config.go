package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "STEEPLINE"

	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDBDriver     = "postgres"
	defaultDBHost       = "localhost"
	defaultDBPort       = "5432"
	defaultDBSSLMode    = "disable"
	defaultDBMaxConns   = 10
	defaultDBPath       = "steepline.db"
	defaultTokenTTLDays = 30
	defaultLogLevel     = "info"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress string

	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBPath         string
	DBMaxOpenConns int

	SigningSecret string
	TokenTTL      time.Duration

	LogLevel       string
	AllowedOrigins []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("db.driver", defaultDBDriver)
	configViper.SetDefault("db.host", defaultDBHost)
	configViper.SetDefault("db.port", defaultDBPort)
	configViper.SetDefault("db.sslmode", defaultDBSSLMode)
	configViper.SetDefault("db.max_open_conns", defaultDBMaxConns)
	configViper.SetDefault("db.path", defaultDBPath)
	configViper.SetDefault("auth.token_ttl_days", defaultTokenTTLDays)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:    configViper.GetString("http.address"),
		DBDriver:       strings.ToLower(configViper.GetString("db.driver")),
		DBHost:         configViper.GetString("db.host"),
		DBPort:         configViper.GetString("db.port"),
		DBUser:         configViper.GetString("db.user"),
		DBPassword:     configViper.GetString("db.password"),
		DBName:         configViper.GetString("db.name"),
		DBSSLMode:      configViper.GetString("db.sslmode"),
		DBPath:         configViper.GetString("db.path"),
		DBMaxOpenConns: configViper.GetInt("db.max_open_conns"),
		SigningSecret:  configViper.GetString("auth.signing_secret"),
		TokenTTL:       time.Duration(configViper.GetInt("auth.token_ttl_days")) * 24 * time.Hour,
		LogLevel:       configViper.GetString("log.level"),
		AllowedOrigins: configViper.GetStringSlice("cors.allowed_origins"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	switch c.DBDriver {
	case "postgres", "postgresql":
		if strings.TrimSpace(c.DBName) == "" {
			return fmt.Errorf("db.name is required for the postgres driver")
		}
		if strings.TrimSpace(c.DBUser) == "" {
			return fmt.Errorf("db.user is required for the postgres driver")
		}
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("db.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported db.driver: %s", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_days must be positive")
	}
	return nil
}
