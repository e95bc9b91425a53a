// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrate drives the generate-validate-repair-retry loop.
//
// One Run takes a requirement record through constraint detection, the
// record interpreter, and then up to max_attempts generation rounds. Each
// round flows candidate source through repair, the syntax gate, constraint
// validation, and test execution; the first stage that rejects the
// candidate becomes structured feedback for the next round. Transient
// model failures are retried without consuming an attempt; malformed
// responses consume one.
package orchestrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/codesmith-ai/codesmith/services/forge/astcheck"
	"github.com/codesmith-ai/codesmith/services/forge/config"
	"github.com/codesmith-ai/codesmith/services/forge/constraint"
	"github.com/codesmith-ai/codesmith/services/forge/history"
	"github.com/codesmith-ai/codesmith/services/forge/interpret"
	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/llm"
	"github.com/codesmith-ai/codesmith/services/forge/pyast"
	"github.com/codesmith-ai/codesmith/services/forge/repair"
	"github.com/codesmith-ai/codesmith/services/forge/sandbox"
	"github.com/codesmith-ai/codesmith/services/forge/testgen"
)

// maxTransientRetries bounds retries of infrastructure failures within a
// single attempt.
const maxTransientRetries = 2

// Status is the terminal state of a run.
type Status string

const (
	// StatusSuccess means a candidate cleared every enabled stage.
	StatusSuccess Status = "success"
	// StatusExhausted means the attempt budget ran out; the outcome
	// carries the best-scoring candidate.
	StatusExhausted Status = "exhausted"
)

// BlockedError is returned when the record interpreter finds the record
// itself incoherent. No generation happens; the record must be fixed.
type BlockedError struct {
	Report interpret.Report
}

func (e *BlockedError) Error() string {
	return "generation blocked: " + e.Report.Summary()
}

// AttemptRecord captures one generation round for scoring and reporting.
type AttemptRecord struct {
	Attempt     int
	Temperature float32
	Code        ir.GeneratedCode
	Violations  []ir.Violation
	TestResult  *ir.ValidationResult
	Score       float64
}

// Outcome is the result of a pipeline run.
type Outcome struct {
	RunID     string
	Status    Status
	Code      ir.GeneratedCode
	Attempts  []AttemptRecord
	Warnings  []string
	Decisions []constraint.Decision
}

// Pipeline wires the stages together around a model client.
type Pipeline struct {
	client    llm.Client
	detector  *constraint.Detector
	interp    *interpret.Interpreter
	validator *astcheck.Validator
	gen       *testgen.Generator
	runner    *sandbox.Runner
	engine    *repair.Engine
	store     history.Store
	cfg       config.PipelineConfig
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the pipeline tuning.
func WithConfig(cfg config.PipelineConfig) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDetector replaces the constraint detector.
func WithDetector(d *constraint.Detector) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.detector = d
		}
	}
}

// WithInterpreter replaces the record interpreter.
func WithInterpreter(i *interpret.Interpreter) Option {
	return func(p *Pipeline) {
		if i != nil {
			p.interp = i
		}
	}
}

// WithValidator replaces the constraint validator.
func WithValidator(v *astcheck.Validator) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithGenerator replaces the test case generator.
func WithGenerator(g *testgen.Generator) Option {
	return func(p *Pipeline) {
		if g != nil {
			p.gen = g
		}
	}
}

// WithRunner replaces the execution sandbox.
func WithRunner(r *sandbox.Runner) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithRepairEngine replaces the repair engine.
func WithRepairEngine(e *repair.Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithHistory attaches a run record store.
func WithHistory(s history.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// NewPipeline creates a Pipeline around the given model client with
// default stage implementations.
func NewPipeline(client llm.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:    client,
		detector:  constraint.NewDetector(),
		interp:    interpret.NewInterpreter(),
		validator: astcheck.NewValidator(),
		gen:       testgen.NewGenerator(),
		runner:    sandbox.NewRunner(),
		engine:    repair.NewEngine(),
		cfg:       config.Default().Pipeline,
		logger:    slog.Default(),
		tracer:    otel.Tracer("codesmith/forge/orchestrate"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run takes a requirement record to a terminal outcome.
//
// Description:
//
//	Detects constraints, interprets the record, generates test cases,
//	then loops generation attempts with escalating temperature. Returns
//	StatusSuccess on the first fully valid candidate, StatusExhausted
//	with the best-scoring candidate when attempts run out, or
//	BlockedError when the record itself is incoherent.
//
// Inputs:
//
//	ctx - Context; cancellation aborts the run.
//	r - The requirement record. Detected constraints are attached to it.
//
// Outputs:
//
//	*Outcome - Terminal state, final code, and the per-attempt trail.
//	error - BlockedError, infrastructure failures, or ctx errors.
func (p *Pipeline) Run(ctx context.Context, r *ir.IR) (*Outcome, error) {
	initMetrics()
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("function", r.Signature.Name)))
	defer span.End()

	out := &Outcome{RunID: uuid.NewString()}
	p.logger.Info("pipeline run starting", "run_id", out.RunID, "function", r.Signature.Name)

	if p.cfg.EnableConstraintDetection {
		constraints, decisions := p.detector.Detect(r)
		for _, c := range constraints {
			r.Attach(c)
		}
		out.Decisions = decisions
	}

	if p.cfg.EnableInterpreter {
		report := p.interp.Analyze(r)
		for _, w := range report.Warnings {
			out.Warnings = append(out.Warnings, w.Message)
		}
		if report.Blocking() {
			recordOutcome(ctx, "blocked")
			return nil, &BlockedError{Report: report}
		}
	}

	var cases []ir.TestCase
	if p.cfg.EnableExecution {
		cases = p.gen.Generate(r)
	}
	hints := constraintHints(r)

	var fb Feedback
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		rec, err := p.runAttempt(ctx, r, attempt, hints, fb, cases)
		if err != nil {
			return nil, err
		}
		out.Attempts = append(out.Attempts, rec.record)
		out.Warnings = append(out.Warnings, rec.warnings...)
		fb = rec.feedback

		if rec.feedback == nil {
			out.Status = StatusSuccess
			out.Code = rec.record.Code
			recordOutcome(ctx, string(StatusSuccess))
			p.persist(ctx, out, r, "")
			return out, nil
		}
		p.logger.Info("attempt rejected",
			"run_id", out.RunID,
			"attempt", attempt,
			"stage", rec.feedback.Stage())
	}

	out.Status = StatusExhausted
	var lastDiagnostic string
	if fb != nil {
		lastDiagnostic = fb.Render()
	}
	if best := bestAttempt(out.Attempts); best != nil {
		out.Code = best.Code
	}
	recordOutcome(ctx, string(StatusExhausted))
	p.persist(ctx, out, r, lastDiagnostic)
	return out, nil
}

// attemptResult bundles what one round produced. feedback == nil means the
// candidate cleared every enabled stage.
type attemptResult struct {
	record   AttemptRecord
	feedback Feedback
	warnings []string
}

func (p *Pipeline) runAttempt(ctx context.Context, r *ir.IR, attempt int, hints string, fb Feedback, cases []ir.TestCase) (*attemptResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.attempt",
		trace.WithAttributes(attribute.Int("attempt", attempt)))
	defer span.End()

	started := time.Now()
	temp := temperatureFor(p.cfg.TemperatureSchedule, attempt)
	res := &attemptResult{record: AttemptRecord{Attempt: attempt, Temperature: temp}}

	var feedbackText string
	if fb != nil {
		feedbackText = fb.Render()
	}
	source, err := p.generateWithRetry(ctx, llm.CodeRequest{
		IR:              r,
		ConstraintHints: hints,
		Feedback:        feedbackText,
		Temperature:     temp,
	})
	if err != nil {
		if llm.IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		res.feedback = &MalformedFeedback{Err: err}
		recordAttempt(ctx, "response", time.Since(started))
		return res, nil
	}

	code := ir.GeneratedCode{Source: source, Attempt: attempt}
	if p.cfg.EnableASTRepair {
		if err := p.engine.Run(ctx, &code, r); err != nil {
			p.logger.Warn("repair engine failed, continuing unrepaired", "error", err)
		}
		recordRepairs(ctx, code.Repairs)
	}
	res.record.Code = code

	arena, err := pyast.Parse(ctx, []byte(code.Source))
	if err != nil {
		return nil, err
	}
	if arena.HasErrors() {
		res.feedback = &SyntaxFeedback{Issues: arena.SyntaxIssues()}
		recordAttempt(ctx, "syntax", time.Since(started))
		return res, nil
	}

	violations, err := p.validator.Validate(ctx, code.Source, r)
	if err != nil {
		return nil, fmt.Errorf("validating candidate: %w", err)
	}
	res.record.Violations = violations
	for _, v := range violations {
		recordViolations(ctx, 1, string(v.Constraint.Type()))
	}
	if hasBlockingViolation(violations) {
		res.feedback = &ConstraintFeedback{Violations: violations}
		res.record.Score = scoreAttempt(r, violations, nil, len(cases))
		recordAttempt(ctx, "constraints", time.Since(started))
		return res, nil
	}
	for _, v := range violations {
		res.warnings = append(res.warnings, v.String())
	}

	if p.cfg.EnableExecution && len(cases) > 0 {
		result, err := p.runner.Run(ctx, code.Source, r.Signature.Name, cases)
		if err != nil {
			return nil, fmt.Errorf("executing candidate: %w", err)
		}
		res.record.TestResult = result
		if !result.Passed {
			for category, n := range failuresByCategory(result) {
				recordTestFailures(ctx, n, category)
			}
			res.feedback = &TestFeedback{Result: result}
			res.record.Score = scoreAttempt(r, violations, result, len(cases))
			recordAttempt(ctx, "tests", time.Since(started))
			return res, nil
		}
	}

	res.record.Score = 1
	recordAttempt(ctx, "success", time.Since(started))
	return res, nil
}

// generateWithRetry retries transient model failures a bounded number of
// times. Content failures pass straight through.
func (p *Pipeline) generateWithRetry(ctx context.Context, req llm.CodeRequest) (string, error) {
	var lastErr error
	for try := 0; try <= maxTransientRetries; try++ {
		source, err := p.client.GenerateCode(ctx, req)
		if err == nil {
			return source, nil
		}
		if !llm.IsTransient(err) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
		p.logger.Warn("transient model failure", "try", try+1, "error", err)
	}
	return "", lastErr
}

func (p *Pipeline) persist(ctx context.Context, out *Outcome, r *ir.IR, diagnostic string) {
	if p.store == nil {
		return
	}
	err := p.store.Save(ctx, history.RunRecord{
		ID:         out.RunID,
		CreatedAt:  time.Now().UTC(),
		Function:   r.Signature.Name,
		Status:     string(out.Status),
		Attempts:   len(out.Attempts),
		Source:     out.Code.Source,
		Diagnostic: diagnostic,
	})
	if err != nil {
		p.logger.Warn("saving run record failed", "run_id", out.RunID, "error", err)
	}
}

func temperatureFor(schedule []float32, attempt int) float32 {
	if len(schedule) == 0 {
		return 0.3
	}
	idx := attempt - 1
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return schedule[idx]
}

func hasBlockingViolation(violations []ir.Violation) bool {
	for _, v := range violations {
		if v.Constraint.Severity() == ir.SeverityError {
			return true
		}
	}
	return false
}

func failuresByCategory(result *ir.ValidationResult) map[string]int {
	counts := make(map[string]int)
	for _, f := range result.FailedTests {
		counts[string(f.Category)]++
	}
	return counts
}

// constraintHints renders the attached constraints as prompt guidance so
// the model aims at them instead of discovering them through rejection.
func constraintHints(r *ir.IR) string {
	var hints string
	for _, c := range r.Constraints {
		hints += "- " + c.Describe() + "\n"
	}
	return hints
}
