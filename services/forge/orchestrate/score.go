// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrate

import (
	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

const (
	constraintWeight = 0.4
	testWeight       = 0.6
)

// scoreAttempt ranks a failed candidate by how many error constraints it
// satisfies and how many test cases it passes, so exhaustion can surface
// the least-bad attempt. Tests weigh more than structure: passing tests is
// the closer proxy for correctness.
func scoreAttempt(r *ir.IR, violations []ir.Violation, result *ir.ValidationResult, totalCases int) float64 {
	constraintScore := 1.0
	if total := len(r.ErrorConstraints()); total > 0 {
		violated := 0
		for _, v := range violations {
			if v.Constraint.Severity() == ir.SeverityError {
				violated++
			}
		}
		constraintScore = float64(total-violated) / float64(total)
		if constraintScore < 0 {
			constraintScore = 0
		}
	}

	testScore := 0.0
	if result != nil && totalCases > 0 {
		passed := totalCases - len(result.FailedTests)
		if passed > 0 {
			testScore = float64(passed) / float64(totalCases)
		}
	}

	return constraintWeight*constraintScore + testWeight*testScore
}

// bestAttempt returns the highest-scoring attempt, preferring later
// attempts on ties since they were generated with more feedback.
func bestAttempt(attempts []AttemptRecord) *AttemptRecord {
	var best *AttemptRecord
	for i := range attempts {
		a := &attempts[i]
		if a.Code.Source == "" {
			continue
		}
		if best == nil || a.Score >= best.Score {
			best = a
		}
	}
	return best
}
