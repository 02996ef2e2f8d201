/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tomoncle/sales-performance/config"
	"github.com/tomoncle/sales-performance/database"
	_ "github.com/tomoncle/sales-performance/models"
	"github.com/tomoncle/sales-performance/utils"
	"github.com/tomoncle/sales-performance/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	port       int
	bind       string
	configFile string
	envFiles   []string
	strict     bool
	verbosity  int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "salesapi",
		Short:        "Sales Performance API server",
		Long:         `salesapi serves the Sales Performance API. Without a subcommand it runs the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load (default .env)")
	rootCmd.PersistentFlags().BoolVar(&opts.strict, "strict-config", false, "refuse to start with the placeholder database password")
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	addServeFlags(rootCmd, opts)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	addServeFlags(serveCmd, opts)

	checkCmd := &cobra.Command{
		Use:   "check-db",
		Short: "Open one session, ping the database and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckDB(cmd, opts)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "salesapi %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}

	rootCmd.AddCommand(serveCmd, checkCmd, versionCmd)
	return rootCmd
}

func addServeFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVarP(&opts.port, "port", "p", config.DefaultAPIPort, "HTTP server port (or set API_PORT)")
	cmd.Flags().StringVarP(&opts.bind, "bind", "b", "0.0.0.0", "IP address to bind to (or set API_BIND)")
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile, opts.envFiles...)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Server.Port = opts.port
	}
	if f := cmd.Flags().Lookup("bind"); f != nil && f.Changed {
		cfg.Server.Bind = opts.bind
	}
	if opts.strict {
		cfg.Server.StrictConfig = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig, verbosity int, out io.Writer) {
	utils.ConfigureConsoleOutput(out)
	utils.ConfigureConsoleLogFormat(cfg.Format)
	switch {
	case verbosity >= 2:
		utils.ConfigureLogLevel("trace")
	case verbosity == 1:
		utils.ConfigureLogLevel("debug")
	default:
		utils.ConfigureLogLevel(cfg.Level)
	}
	utils.ConfigureFileLog(utils.FileLogOptions{
		Path:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}

func runServe(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log, opts.verbosity, cmd.OutOrStdout())
	log := utils.NewLogger("MAIN")

	log.WithFields(logrus.Fields{
		"version":  version,
		"addr":     cfg.Server.Addr(),
		"database": cfg.Database.RedactedURL(),
	}).Info("Starting " + config.AppTitle + " " + config.AppVersion)

	factory := database.NewFactory()
	engine, err := factory.CreateFromConfig(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database engine: %w", err)
	}
	defer closeFactory(factory, log)

	maker, err := factory.SessionMaker()
	if err != nil {
		return err
	}
	provider := database.NewProvider(maker, database.NewNamedLogger("SESSION"))

	// startup check is informational only, the server starts either way
	go testConnection(ctx, engine, log)

	server := web.NewServer(cfg.Server, engine, provider)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func testConnection(ctx context.Context, engine database.Engine, log *utils.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := engine.Ping(ctx); err != nil {
		log.WithError(err).WithField("kind", database.ClassifyError(err).String()).
			Warn("Database connection failed, requests needing the database will fail until it is reachable")
		return
	}
	log.Info("Database connection established")
}

func closeFactory(factory *database.Factory, log *utils.Logger) {
	if err := factory.Close(); err != nil {
		log.WithError(err).Warn("Failed to close database engine")
	}
}

func runCheckDB(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log, opts.verbosity, cmd.ErrOrStderr())

	factory := database.NewFactory()
	if _, err := factory.CreateFromConfig(&cfg.Database); err != nil {
		return fmt.Errorf("failed to create database engine: %w", err)
	}
	defer closeFactory(factory, utils.NewLogger("MAIN"))

	provider, err := factory.Provider()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	err = provider.WithSession(ctx, func(ctx context.Context, session *database.Session) error {
		return session.Ping(ctx)
	})
	if err != nil {
		return fmt.Errorf("database check failed (%s): %w", cfg.Database.RedactedURL(), err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database OK: %s\n", cfg.Database.RedactedURL())
	return nil
}
