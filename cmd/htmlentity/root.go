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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentberlin/htmlentity/internal/app"
	"github.com/agentberlin/htmlentity/internal/config"
	"github.com/agentberlin/htmlentity/internal/logging"
	"github.com/agentberlin/htmlentity/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Persistent flag variables.
var (
	flagDBPath   string
	flagLogLevel string
	flagLogFile  string
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "htmlentity",
	Short: "Extract structured entity records from HTML documents",
	Long: `htmlentity parses HTML documents into rows of named fields described by
YAML entity definitions. It follows links, downloads resources and keeps
parse runs in a local sqlite database.

Settings are read from HTMLENTITY_* environment variables; flags win.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if flagDBPath != "" {
			cfg.DBFile = flagDBPath
		}
		if flagLogLevel != "" {
			cfg.Level = flagLogLevel
		}
		if flagLogFile != "" {
			cfg.File = flagLogFile
		}
		logger, err = logging.New(cfg.LoggingConfig())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path of the sqlite database (default ~/.htmlentity/htmlentity.db)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Also write JSON logs to this rotated file")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	path, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return st, nil
}

// newApp builds the application, with a store when withStore is set. The
// returned function closes the store.
func newApp(withStore bool, opts ...app.Option) (*app.App, func(), error) {
	opts = append([]app.Option{app.WithLogger(logger)}, opts...)
	if !withStore {
		return app.NewApp(nil, cfg, opts...), func() {}, nil
	}
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return app.NewApp(st, cfg, opts...), func() { st.Close() }, nil
}
