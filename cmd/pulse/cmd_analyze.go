// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPulse/pkg/ux"
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

var (
	analyzeProject   string
	analyzeNoSummary bool
)

// signalsFile is the JSON document accepted by analyze.
type signalsFile struct {
	Tasks    []risk.TaskSignal    `json:"tasks"`
	Messages []risk.MessageSignal `json:"messages"`
}

func readSignals(path string, stdin io.Reader) (*signalsFile, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var in signalsFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("parse signals: %w", err)
	}
	return &in, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext(cmd)
	defer stop()

	var (
		report  *analysis.Report
		savedID string
		err     error
	)

	switch {
	case analyzeProject != "" && len(args) > 0:
		return fail(exitInvalidInput, "pass either a signals file or --project, not both")

	case analyzeProject != "":
		core, openErr := pulse.OpenCore(ctx, cfg)
		if openErr != nil {
			return openErr
		}
		defer core.Close()

		if _, lookupErr := core.Store.ProjectOwner(ctx, analyzeProject); lookupErr != nil {
			return fail(exitInvalidInput, "project %s: %w", analyzeProject, lookupErr)
		}
		var res *reports.Result
		res, err = core.Runner.AnalyzeProject(ctx, analyzeProject, store.OriginCLI, !analyzeNoSummary)
		if res != nil {
			report = res.Report
			if res.Saved != nil {
				savedID = res.Saved.ID
			}
		}

	case len(args) == 1:
		in, readErr := readSignals(args[0], cmd.InOrStdin())
		if readErr != nil {
			return fail(exitInvalidInput, "%w", readErr)
		}
		pipeline, buildErr := pulse.NewPipeline(cfg)
		if buildErr != nil {
			return buildErr
		}
		report, err = pipeline.Run(ctx, in.Tasks, in.Messages, !analyzeNoSummary)

	default:
		return fail(exitInvalidInput, "a signals file (or - for stdin) or --project is required")
	}

	if risk.IsValidationError(err) {
		return fail(exitInvalidInput, "%w", err)
	}
	if report == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if encErr := writeReportJSON(out, report, savedID); encErr != nil {
			return encErr
		}
	} else {
		renderReport(ux.NewPrinter(out), report, savedID)
	}

	if se, ok := summarizer.AsSummarizationError(err); ok {
		return &commandError{code: exitSummarization, err: fmt.Errorf("summary unavailable (%s, retryable=%t): %w", se.Kind, se.Retryable(), se.Err)}
	}
	return err
}

func writeReportJSON(w io.Writer, report *analysis.Report, savedID string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*analysis.Report
		SummaryID string `json:"summary_id,omitempty"`
	}{report, savedID})
}
