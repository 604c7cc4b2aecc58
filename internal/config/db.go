package config

import "fmt"

type DBConfig struct {
	// postgres | sqlite
	Driver string `mapstructure:"driver"`
	// Для sqlite: путь к файлу или ":memory:".
	DSN string `mapstructure:"dsn"`

	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	TimeZone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifeTime int    `mapstructure:"conn_max_lifetime_min"` // минут
}

// PostgresDSN собирает DSN в формате key=value, если явный DSN не задан.
func (c DBConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
		c.TimeZone,
	)
}

func (c DBConfig) validate() error {
	switch c.Driver {
	case "postgres":
		if c.DSN == "" && (c.Host == "" || c.User == "" || c.Name == "") {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case "sqlite":
		if c.DSN == "" {
			return fmt.Errorf("invalid DB config: DB_DSN is required for sqlite")
		}
	default:
		return fmt.Errorf("invalid DB config: unsupported driver %q", c.Driver)
	}
	return nil
}
