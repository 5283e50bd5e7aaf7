// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPulse/pkg/ux"
	"github.com/AleutianAI/AleutianPulse/services/pulse"
	"github.com/AleutianAI/AleutianPulse/services/pulse/digest"
)

// runDigest runs one digest pass now, regardless of digest.enabled.
func runDigest(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext(cmd)
	defer stop()

	core, err := pulse.OpenCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer core.Close()

	dcfg := cfg.Digest
	dcfg.Enabled = false // schedules are irrelevant for a one-off run
	sched, err := digest.New(dcfg, core.Store, core.Runner, nil)
	if err != nil {
		return err
	}

	res, err := sched.RunDigest(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	renderDigest(ux.NewPrinter(out), res)
	return nil
}
