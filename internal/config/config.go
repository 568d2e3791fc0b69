package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type AppConfig struct {
	Env         string `mapstructure:"env"`
	FrontendURL string `mapstructure:"frontend_url"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	SigningKey string `mapstructure:"signing_key"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	TimeoutS int    `mapstructure:"timeout_s"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	App     AppConfig     `mapstructure:"app"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoadConfig reads config.yaml (optional) and environment variables into Config.
// A local .env file is loaded first so that development setups need no exports.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config.yaml")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 4000)
	v.SetDefault("app.env", "development")
	v.SetDefault("app.frontend_url", "http://localhost:5173")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "aura")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.timeout_s", 15)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// The config file is optional; env vars alone are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range []string{
		"server.port",
		"app.env", "app.frontend_url",
		"mongo.uri", "mongo.database",
		"redis.addr", "redis.password", "redis.db",
		"jwt.signing_key",
		"smtp.host", "smtp.port", "smtp.username", "smtp.password", "smtp.from", "smtp.timeout_s",
		"logging.level", "logging.format",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if cfg.JWT.SigningKey == "" {
		return nil, fmt.Errorf("jwt.signing_key (JWT_SIGNING_KEY) is required")
	}
	return &cfg, nil
}

// IsProduction reports whether the app runs with production cookie/CORS settings.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
