// Copyright 2025 Agentic World, LLC (Sherin Thomas)
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

// Package config loads the htmlentity application settings from the
// environment. Every variable is prefixed with HTMLENTITY_.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentberlin/htmlentity"
	"github.com/agentberlin/htmlentity/internal/logging"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "HTMLENTITY"

// Config holds all application configuration. The sections are embedded so
// every variable sits directly under the prefix, e.g. HTMLENTITY_THREADS.
type Config struct {
	Parsing
	Storage
	Listen
	Log
}

// Parsing configures the parser built by the commands.
type Parsing struct {
	Threads          int           `envconfig:"THREADS" default:"4"`
	DownloadDir      string        `envconfig:"DOWNLOAD_DIR"`
	Flatten          bool          `envconfig:"FLATTEN" default:"false"`
	RemoteInterval   time.Duration `envconfig:"REMOTE_INTERVAL" default:"15ms"`
	UserAgent        string        `envconfig:"USER_AGENT" default:"htmlentity/1.0"`
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"20s"`
	RetryMax         int           `envconfig:"RETRY_MAX" default:"2"`
	RespectRobotsTxt bool          `envconfig:"RESPECT_ROBOTS" default:"false"`
	TraceHTTP        bool          `envconfig:"TRACE_HTTP" default:"false"`
}

// Storage locates the sqlite database. An empty path means
// ~/.htmlentity/htmlentity.db.
type Storage struct {
	DBFile string `envconfig:"DB_PATH"`
}

// Listen holds the addresses of the HTTP API and MCP server.
type Listen struct {
	Addr    string `envconfig:"ADDR" default:":8080"`
	MCPAddr string `envconfig:"MCP_ADDR" default:":8081"`
}

// Log holds logging configuration.
type Log struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	JSON        bool   `envconfig:"LOG_JSON" default:"false"`
	File        string `envconfig:"LOG_FILE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Parsing: Parsing{
			Threads:        4,
			RemoteInterval: htmlentity.DefaultRemoteInterval,
			UserAgent:      "htmlentity/1.0",
			Timeout:        20 * time.Second,
			RetryMax:       2,
		},
		Listen: Listen{
			Addr:    ":8080",
			MCPAddr: ":8081",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// DBPath returns the configured database path or the default under the
// user's home directory.
func (c *Config) DBPath() (string, error) {
	if c.DBFile != "" {
		return c.DBFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".htmlentity", "htmlentity.db"), nil
}

// ParserConfig converts the settings into a htmlentity.ParserConfig.
func (c *Config) ParserConfig() *htmlentity.ParserConfig {
	pc := htmlentity.NewDefaultParserConfig()
	pc.ThreadCount = c.Threads
	pc.DownloadDir = c.DownloadDir

	fetch := htmlentity.DefaultFetchOptions().
		WithFlattenDirectoryStructure(c.Flatten).
		WithRemoteInterval(c.RemoteInterval)
	pc.Fetch = &fetch

	httpCfg := htmlentity.NewDefaultHTTPConfig()
	if c.UserAgent != "" {
		httpCfg.UserAgent = c.UserAgent
	}
	if c.Timeout > 0 {
		httpCfg.Timeout = c.Timeout
	}
	httpCfg.RetryMax = c.RetryMax
	httpCfg.RespectRobotsTxt = c.RespectRobotsTxt
	httpCfg.TraceHTTP = c.TraceHTTP
	pc.HTTP = httpCfg
	return pc
}

// LoggingConfig converts the log settings for the logging package.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Level
	cfg.Development = c.Development
	cfg.JSON = c.JSON
	cfg.File = c.File
	return cfg
}
