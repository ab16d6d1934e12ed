// pkg/config/load.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by LoadConfig, e.g.
// ROWBIND_DATABASE_DSN.
const EnvPrefix = "ROWBIND"

// LoadConfig loads configuration from files, environment variables, and defaults.
// configPath: optional path to a specific configuration file.
// If configPath is empty, searches for "rowbind.yaml" in the working
// directory and in $HOME/.rowbind.
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()
	cfg := NewDefaultConfig()

	// 1. Defaults. Every key is registered so AutomaticEnv can see it.
	v.SetDefault("database.dialect", cfg.Database.Dialect)
	v.SetDefault("database.dsn", cfg.Database.DSN)
	v.SetDefault("database.database", cfg.Database.Database)
	v.SetDefault("database.connectTimeout", cfg.Database.ConnectTimeout)
	v.SetDefault("database.pool.maxIdleConns", cfg.Database.Pool.MaxIdleConns)
	v.SetDefault("database.pool.maxOpenConns", cfg.Database.Pool.MaxOpenConns)
	v.SetDefault("database.pool.connMaxLifetime", cfg.Database.Pool.ConnMaxLifetime)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("binding.tagKey", cfg.Binding.TagKey)
	v.SetDefault("binding.naming", cfg.Binding.Naming)
	v.SetDefault("binding.strictAttributes", cfg.Binding.StrictAttributes)

	// 2. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Configuration file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("rowbind")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.rowbind")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is only an error when it was asked for explicitly.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("error reading config file %q: %w", configPath, err)
		}
	}

	// 4. Unmarshal
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error decoding configuration: %w", err)
	}

	// 5. Validate
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cfg against its validation tags.
func Validate(cfg Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		var msgs []string
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("Field '%s' failed validation on '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return nil
}
