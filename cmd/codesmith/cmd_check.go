// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codesmith-ai/codesmith/pkg/ux"
	"github.com/codesmith-ai/codesmith/pkg/validation"
	"github.com/codesmith-ai/codesmith/services/forge/astcheck"
	"github.com/codesmith-ai/codesmith/services/forge/constraint"
	"github.com/codesmith-ai/codesmith/services/forge/interpret"
	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

// runCheck analyzes a requirement record offline: constraint detection,
// record interpretation, and optionally constraint validation of an
// existing candidate. No model is contacted.
func runCheck(cmd *cobra.Command, args []string) error {
	record, err := loadRecord(irPathFlag)
	if err != nil {
		return err
	}

	detector := constraint.NewDetector()
	constraints, decisions := detector.Detect(record)
	for _, c := range constraints {
		record.Attach(c)
	}

	ux.Title("Detected Constraints")
	if len(constraints) == 0 {
		ux.Muted("none")
	}
	for _, c := range constraints {
		ux.Info(fmt.Sprintf("[%s] %s", c.Type(), c.Describe()))
	}
	if explainFlag {
		ux.Muted(constraint.RenderDecisions(decisions))
	} else {
		for _, d := range decisions {
			if d.Filtered {
				ux.Muted(fmt.Sprintf("filtered %s: %s", d.Rule, d.Rationale))
			}
		}
	}

	report := interpret.NewInterpreter().Analyze(record)
	ux.Title("Record Analysis")
	for _, finding := range report.Errors {
		ux.Error(fmt.Sprintf("[%s] %s", finding.Code, finding.Message))
	}
	for _, finding := range report.Warnings {
		ux.Warning(fmt.Sprintf("[%s] %s", finding.Code, finding.Message))
	}
	if len(report.Errors) == 0 && len(report.Warnings) == 0 {
		ux.Success("record is coherent")
	}

	if codePathFlag != "" {
		if err := checkCandidate(cmd, record); err != nil {
			return err
		}
	}

	if report.Blocking() {
		return fmt.Errorf("record has %d blocking finding(s)", len(report.Errors))
	}
	return nil
}

func checkCandidate(cmd *cobra.Command, record *ir.IR) error {
	source, err := os.ReadFile(codePathFlag)
	if err != nil {
		return fmt.Errorf("reading candidate: %w", err)
	}

	violations, err := astcheck.NewValidator().Validate(cmd.Context(), string(source), record)
	if err != nil {
		return err
	}

	ux.Title("Candidate Validation")
	if len(violations) == 0 {
		ux.Success("candidate satisfies every detected constraint")
		return nil
	}
	for _, v := range violations {
		if v.Constraint != nil && v.Constraint.Severity() == ir.SeverityError {
			ux.Error(v.String())
		} else {
			ux.Warning(v.String())
		}
	}
	return fmt.Errorf("candidate has %d constraint violation(s)", len(violations))
}

func loadRecord(path string) (*ir.IR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	var record ir.IR
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	if record.Signature.Name == "" {
		return nil, fmt.Errorf("record %s has no function name", path)
	}
	if err := validation.ValidateFunctionName(record.Signature.Name); err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}
	for _, p := range record.Signature.Params {
		if err := validation.ValidateParamName(p.Name); err != nil {
			return nil, fmt.Errorf("record %s: %w", path, err)
		}
	}
	return &record, nil
}
