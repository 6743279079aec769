package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig captures runtime settings for the traffic light service.
type ServerConfig struct {
	ListenAddr         string        `mapstructure:"listen_addr"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
	TracingEnabled     bool          `mapstructure:"tracing_enabled"`
	ServiceName        string        `mapstructure:"service_name"`
	RedisURL           string        `mapstructure:"redis_url"`
	RedisChannel       string        `mapstructure:"redis_channel"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// LoadServer loads service configuration from defaults, files, and env vars.
func LoadServer() (ServerConfig, error) {
	return load("./configs")
}

func load(paths ...string) (ServerConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("TRAFFIC")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "0.0.0.0:5000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("service_name", "trafficlight")
	v.SetDefault("redis_url", "")
	v.SetDefault("redis_channel", "traffic_lights:updates")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("cors_allowed_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ServerConfig{}, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
