// pkg/config/config.go
package config

import "time"

// PoolConfig holds the connection pool settings of SQL data sources.
type PoolConfig struct {
	MaxIdleConns    int           `mapstructure:"maxIdleConns" validate:"gte=0,lte=2147483647"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns" validate:"gte=0,lte=2147483647"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime" validate:"gte=0"` // Ex: "1h", "30m"
}

// DatabaseConfig describes the data source rows are read from. Both fields
// may be left empty when no command needs a database.
type DatabaseConfig struct {
	Dialect        string        `mapstructure:"dialect"`                              // Ex: "mysql", "postgres", "sqlite3", "sqlserver", "mongodb"
	DSN            string        `mapstructure:"dsn" validate:"required_with=Dialect"` // dialect specific data source name
	Database       string        `mapstructure:"database"`                             // mongodb only
	ConnectTimeout time.Duration `mapstructure:"connectTimeout" validate:"gte=0"`
	Pool           PoolConfig    `mapstructure:"pool"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// BindingConfig controls how record descriptors are read from Go types.
type BindingConfig struct {
	TagKey           string `mapstructure:"tagKey" validate:"required"`
	Naming           string `mapstructure:"naming" validate:"oneof=snake exact camel lower_camel"`
	StrictAttributes bool   `mapstructure:"strictAttributes"` // malformed rename annotations are errors
}

// Config is the root of the configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Binding  BindingConfig  `mapstructure:"binding"`
}

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			// Dialect and DSN must be provided by the user
			ConnectTimeout: 10 * time.Second,
			Pool: PoolConfig{
				MaxIdleConns:    5,
				MaxOpenConns:    10,
				ConnMaxLifetime: time.Hour * 1,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Binding: BindingConfig{
			TagKey: "row",
			Naming: "snake",
		},
	}
}
