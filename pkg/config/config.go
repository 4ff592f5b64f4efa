// Package config loads the server configuration from the environment, an
// optional dotenv file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/bitechdev/furniture-admin/pkg/database"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"min=1,max=65535"`
	Prefix         string   `mapstructure:"prefix" validate:"omitempty,startswith=/"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `mapstructure:"max_conns" validate:"min=1"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Dev   bool   `mapstructure:"dev"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.prefix":          "API_PREFIX",
	"server.allowed_origins": "CORS_ALLOWED_ORIGINS",
	"database.host":          "DB_HOST",
	"database.port":          "DB_PORT",
	"database.user":          "DB_USER",
	"database.password":      "DB_PASSWORD",
	"database.name":          "DB_NAME",
	"database.sslmode":       "DB_SSLMODE",
	"database.max_conns":     "DB_MAX_CONNS",
	"log.level":              "LOG_LEVEL",
	"log.dev":                "LOG_DEV",
}

const DefaultDotenvPath = "../.env"

// Options controls where Load looks for files.
type Options struct {
	// DotenvPath is read when present; a missing file is not an error.
	DotenvPath string
	// ConfigPaths are searched for config.yaml. Empty means the working
	// directory.
	ConfigPaths []string
}

// Load uses DOTENV_PATH (default ../.env) and the working directory.
func Load() (*Config, error) {
	dotenv := os.Getenv("DOTENV_PATH")
	if dotenv == "" {
		dotenv = DefaultDotenvPath
	}
	return LoadWithOptions(Options{DotenvPath: dotenv})
}

// LoadWithOptions resolves every key from, in priority order, the process
// environment, the dotenv file, config.yaml and the defaults.
func LoadWithOptions(opts Options) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	paths := opts.ConfigPaths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if opts.DotenvPath != "" {
		if err := applyDotenv(v, opts.DotenvPath); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.prefix", "/api")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "Passw0rd")
	v.SetDefault("database.name", "demo")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dev", false)
}

// applyDotenv overrides file and default values with the dotenv entries whose
// variable is unset or empty in the process environment.
func applyDotenv(v *viper.Viper, path string) error {
	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	for key, env := range envBindings {
		if os.Getenv(env) != "" {
			continue
		}
		if dv.IsSet(strings.ToLower(env)) {
			v.Set(key, dv.GetString(strings.ToLower(env)))
		}
	}
	return nil
}

// DatabaseOptions converts the database section for database.NewPool.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		SSLMode:  c.Database.SSLMode,
		MaxConns: c.Database.MaxConns,
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
