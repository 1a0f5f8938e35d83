// Copyright 2025 Agentdeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the agentdeck configuration file. Values support
// ${VAR} and ${VAR:-default} environment expansion; a .env file next to
// the working directory is honored.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the local control-plane server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns the listen address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig configures persistence. An empty path keeps all state in
// memory for the lifetime of the process.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ClientConfig tunes the protocol client.
type ClientConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	ResubscribeDebounce time.Duration `yaml:"resubscribe_debounce"`
	HistoryLength       int           `yaml:"history_length"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SetDefaults fills in zero-valued fields.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5900
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 60 * time.Second
	}
	if c.Client.ResubscribeDebounce == 0 {
		c.Client.ResubscribeDebounce = 800 * time.Millisecond
	}
	if c.Client.HistoryLength == 0 {
		c.Client.HistoryLength = 12
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %q (supported: text, json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q (supported: debug, info, warn, error)", c.Logging.Level)
	}
	if c.Client.Timeout < 0 || c.Client.ResubscribeDebounce < 0 {
		return fmt.Errorf("client timeouts must not be negative")
	}
	return nil
}
