package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all the configuration settings for the application
type Config struct {
	// Listener configuration
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":5081"`

	// Maximum number of concurrently served clients across all game kinds
	MaxClients int `env:"MAX_CLIENTS" envDefault:"10"`

	// Delay between the join reply and the start broadcast, giving the
	// client time to rebind to its dedicated serving address
	StartDelay time.Duration `env:"START_DELAY" envDefault:"100ms"`

	// RabbitMQ configuration; an empty URL disables event publishing
	AMQPURL string `env:"AMQP_URL" envDefault:""`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load returns the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
