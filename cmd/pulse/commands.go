// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPulse/pkg/logging"
	"github.com/AleutianAI/AleutianPulse/pkg/ux"
	"github.com/AleutianAI/AleutianPulse/services/pulse/config"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "PULSE_CONFIG"

// --- Global Command Variables ---
var (
	configPath  string
	outputLevel string
	jsonOutput  bool

	// loaded by PersistentPreRunE
	cfg    *config.Config
	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:           "pulse",
		Short:         "Detect project risks from task and chat signals and summarize them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if outputLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(outputLevel))
			} else {
				ux.InitPersonality()
			}
			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}
			return loadConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Close()
			}
		},
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled digest",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	// --- Analysis ---
	analyzeCmd = &cobra.Command{
		Use:   "analyze [signals.json|-]",
		Short: "Analyze signals from a JSON file, or a stored project with --project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze, // Defined in cmd_analyze.go
	}

	// --- Digest ---
	digestCmd = &cobra.Command{
		Use:   "digest",
		Short: "Scheduled digest operations",
	}
	digestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Analyze every project once and store the summaries",
		Args:  cobra.NoArgs,
		RunE:  runDigest, // Defined in cmd_digest.go
	}

	// --- MCP ---
	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the risk tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP, // Defined in cmd_mcp.go
	}

	// --- Config ---
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the pulse configuration file",
	}
	configInitCmd = &cobra.Command{
		Use:         "init [path]",
		Short:       "Write the default configuration",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE:        runConfigInit, // Defined in cmd_config.go
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
)

const annotationNoConfig = "pulse/no-config"

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $"+EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&outputLevel, "output", "", "output style: standard, minimal or machine")

	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	analyzeCmd.Flags().StringVar(&analyzeProject, "project", "", "analyze a stored project and save the summary")
	analyzeCmd.Flags().BoolVar(&analyzeNoSummary, "no-summary", false, "skip the LLM summary")
	digestRunCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	digestCmd.AddCommand(digestRunCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(serveCmd, analyzeCmd, digestCmd, mcpCmd, configCmd)
}

// loadConfig reads the config and installs the process logger.
func loadConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	c, err := config.Load(path)
	if err != nil {
		return &commandError{code: exitConfig, err: err}
	}
	cfg = c

	logger = logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "pulse",
		JSON:    cfg.Logging.JSON,
	})
	slog.SetDefault(logger.Slog())
	slog.Debug("Configuration loaded", "path", path, "command", cmd.Name())
	return nil
}

// Exit codes.
const (
	exitError         = 1
	exitConfig        = 2
	exitSummarization = 3
	exitInvalidInput  = 4
)

// commandError carries an exit code out of a RunE.
type commandError struct {
	code int
	err  error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func exitCode(err error) int {
	ux.NewPrinter(os.Stderr).Error(err.Error())
	var ce *commandError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitError
}

func fail(code int, format string, args ...any) error {
	return &commandError{code: code, err: fmt.Errorf(format, args...)}
}
