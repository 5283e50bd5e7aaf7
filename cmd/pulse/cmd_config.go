// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianPulse/pkg/ux"
	"github.com/AleutianAI/AleutianPulse/services/pulse/config"
)

// DefaultConfigPath is where config init writes without an argument.
const DefaultConfigPath = "~/.aleutian/pulse/config.yaml"

var configForce bool

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := DefaultConfigPath
	if len(args) == 1 {
		path = args[0]
	}
	if home, err := os.UserHomeDir(); err == nil && len(path) > 1 && path[:2] == "~/" {
		path = filepath.Join(home, path[2:])
	}

	if !configForce {
		if _, err := os.Stat(path); err == nil {
			return fail(exitConfig, "%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}

	p := ux.NewPrinter(cmd.OutOrStdout())
	p.Success("Wrote default configuration to " + path)
	p.Muted("Set " + config.EnvOpenAIKey + " to enable summaries.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
