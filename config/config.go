// Package config loads and validates the gateway configuration.
// Precedence, highest first: CLI flags, STOWRY_* environment variables,
// config files, defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/stowry/database"
	stowryhttp "github.com/sagarc03/stowry/http"
	"github.com/sagarc03/stowry/keyring"
	"github.com/sagarc03/stowry/sign"
)

// Config is the root configuration struct.
type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Service  ServiceConfig         `mapstructure:"service"`
	Database database.Config       `mapstructure:"database"`
	Storage  StorageConfig         `mapstructure:"storage"`
	Auth     AuthConfig            `mapstructure:"auth"`
	CORS     stowryhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig             `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Mode          string `mapstructure:"mode" validate:"required,oneof=store static spa"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds service-level settings.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AuthConfig holds the presigned-URL policy: which routes require
// signatures, which schemes are accepted, the expiry ceiling, the clock
// skew tolerance, and where keys come from.
type AuthConfig struct {
	Read    string   `mapstructure:"read" validate:"required,oneof=public private"`
	Write   string   `mapstructure:"write" validate:"required,oneof=public private"`
	Region  string   `mapstructure:"region" validate:"required"`
	Service string   `mapstructure:"service" validate:"required"`
	Schemes []string `mapstructure:"schemes" validate:"required,min=1,dive,oneof=native aws"`
	// MaxExpiry and ClockSkew are in seconds.
	MaxExpiry int            `mapstructure:"max_expiry" validate:"min=1"`
	ClockSkew int            `mapstructure:"clock_skew" validate:"min=0"`
	Keys      keyring.Config `mapstructure:"keys"`
}

// VerifierConfig converts the policy fields for the sign package.
func (a AuthConfig) VerifierConfig() sign.VerifierConfig {
	return sign.VerifierConfig{
		MaxExpiry: time.Duration(a.MaxExpiry) * time.Second,
		ClockSkew: time.Duration(a.ClockSkew) * time.Second,
	}
}

// EnabledSchemes instantiates the configured scheme list.
func (a AuthConfig) EnabledSchemes() []sign.Scheme {
	schemes := make([]sign.Scheme, 0, len(a.Schemes))
	for _, name := range a.Schemes {
		switch name {
		case "native":
			schemes = append(schemes, sign.NewNativeScheme())
		case "aws":
			schemes = append(schemes, sign.NewAWSScheme(a.Region, a.Service))
		}
	}
	return schemes
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-path": "storage.path",
	"port":         "server.port",
	"mode":         "server.mode",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only explicitly set flags override other sources.
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5708)
	v.SetDefault("server.mode", "store")
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("service.cleanup_timeout", 30) // seconds

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "stowry.db")
	v.SetDefault("database.tables.meta_data", "stowry_metadata")

	v.SetDefault("storage.path", "./data")

	v.SetDefault("auth.read", "public")
	v.SetDefault("auth.write", "private")
	v.SetDefault("auth.region", "us-east-1")
	v.SetDefault("auth.service", "s3")
	v.SetDefault("auth.schemes", []string{"native", "aws"})
	v.SetDefault("auth.max_expiry", int(sign.DefaultMaxExpiry/time.Second))
	v.SetDefault("auth.clock_skew", int(sign.DefaultClockSkew/time.Second))

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config.
//
// configFiles are merged in order, later files overriding earlier ones;
// an empty list falls back to ./config.yaml. flags may be nil.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("STOWRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
