// Package main provides the imasmap binary entry point.
// Imasmap validates declarative mapping files that link data-acquisition
// signals to paths inside an IMAS IDS, checking every path and channel name
// against the Data Dictionary and the machine description.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iter-codac/imas-mapping/config"
	"github.com/iter-codac/imas-mapping/dd"
	"github.com/iter-codac/imas-mapping/mapping"
)

const (
	Version = "0.1.0"
	appName = "imasmap"
)

// Exit codes, stable for scripting around the CLI.
const (
	exitInternal = 1
	// exitFormat: the file is not valid YAML or does not adhere to the
	// expected document shape.
	exitFormat = 2
	// exitData: the data in the mapping file is not valid.
	exitData = 3
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitInternal)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		var code *exitCodeError
		if errors.As(err, &code) {
			os.Exit(code.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitInternal)
	}
}

// exitCodeError carries a specific process exit code through cobra's error
// return path. The diagnostic has already been printed when it is raised.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app bundles the collaborators shared by all subcommands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *prometheus.Registry
	resolver  dd.Resolver
	validator *mapping.Validator
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		ddPath     string
		logLevel   string
	)

	a := &app{}

	cmd := &cobra.Command{
		Use:     appName,
		Short:   "Validate IMAS ITER signal mapping files",
		Version: Version,
		Long: `Imasmap validates declarative mapping files that link named
data-acquisition signals to paths inside an IMAS IDS. Every mapped path and
channel name is checked against the Data Dictionary and the machine
description, and source units are verified against the units the Data
Dictionary mandates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath, ddPath, logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: layered imasmap.yaml lookup)")
	cmd.PersistentFlags().StringVar(&ddPath, "dd-path", "", "Directory with Data Dictionary metadata files")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(validateCmd(a))
	cmd.AddCommand(describeCmd(a))
	cmd.AddCommand(watchCmd(a))
	return cmd
}

func (a *app) init(configPath, ddPath, logLevel string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		loader := config.NewLoader(slog.Default())
		if err := loader.EnsureUserConfig(); err != nil {
			slog.Warn("Failed to create default user config", slog.String("error", err.Error()))
		}
		cfg, err = loader.Load()
	}
	if err != nil {
		return err
	}

	if ddPath != "" {
		cfg.DataDictionary.Path = ddPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DataDictionary.Path == "" {
		return fmt.Errorf("data dictionary path is not configured (use --dd-path, imasmap.yaml, or IMASMAP_DD_PATH)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	a.metrics = prometheus.NewRegistry()
	a.resolver = dd.NewCachingResolver(dd.FileResolver{}, a.metrics)
	a.validator = mapping.NewValidator(dd.NewFileCatalog(cfg.DataDictionary.Path, logger), a.resolver)
	a.validator.Logger = logger
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
