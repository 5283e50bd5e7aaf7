// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPulse/services/pulse"
	"github.com/AleutianAI/AleutianPulse/services/pulse/mcp"
)

// runMCP serves MCP on stdio. Logs go to stderr; stdout carries only the
// protocol.
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext(cmd)
	defer stop()

	core, err := pulse.OpenCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer core.Close()

	return mcp.ServeStdio(mcp.NewServer(core.Store, core.Runner))
}
