// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codesmith-ai/codesmith/pkg/logging"
	"github.com/codesmith-ai/codesmith/pkg/ux"
	"github.com/codesmith-ai/codesmith/services/forge/config"
	"github.com/codesmith-ai/codesmith/services/forge/history"
	"github.com/codesmith-ai/codesmith/services/forge/ir"
	"github.com/codesmith-ai/codesmith/services/forge/llm"
	"github.com/codesmith-ai/codesmith/services/forge/orchestrate"
	"github.com/codesmith-ai/codesmith/services/forge/sandbox"
	"github.com/codesmith-ai/codesmith/services/forge/testgen"
)

// maxIRRetries bounds retries when formalizing the description fails on
// infrastructure errors.
const maxIRRetries = 2

func runGenerate(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyGenerateFlags(cfg)

	logger := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		LogDir:  "~/.codesmith/logs",
		Service: "cli",
		Quiet:   true,
	})
	defer func() { _ = logger.Close() }()

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	spin := ux.NewSpinner("formalizing description")
	spin.Start()
	record, err := formalize(ctx, client, description)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("formalizing description: %w", err)
	}

	if showIRFlag {
		printRecord(record)
	}

	opts := []orchestrate.Option{
		orchestrate.WithConfig(cfg.Pipeline),
		orchestrate.WithLogger(logger.Logger),
		orchestrate.WithRunner(sandbox.NewRunner(
			sandbox.WithPython(cfg.Sandbox.Python),
			sandbox.WithTimeout(time.Duration(cfg.Sandbox.PerTestTimeoutSeconds)*time.Second),
			sandbox.WithParallelism(cfg.Sandbox.Parallelism),
			sandbox.WithLogger(logger.Logger),
		)),
		orchestrate.WithGenerator(testgen.NewGenerator(
			testgen.WithMaxCases(cfg.Sandbox.MaxCases),
			testgen.WithLogger(logger.Logger),
		)),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, history.WithLogger(logger.Logger))
		if err != nil {
			ux.Warning("history store unavailable: " + err.Error())
		} else {
			defer func() { _ = store.Close() }()
			opts = append(opts, orchestrate.WithHistory(store))
		}
	}

	spin = ux.NewSpinner(fmt.Sprintf("generating %s", record.Signature.Name))
	spin.Start()
	outcome, err := orchestrate.NewPipeline(client, opts...).Run(ctx, record)
	spin.Stop()

	var blocked *orchestrate.BlockedError
	if errors.As(err, &blocked) {
		ux.Error("the description is incoherent; fix it before generating:")
		for _, finding := range blocked.Report.Errors {
			ux.Info("  " + finding.Message)
		}
		return err
	}
	if err != nil {
		return err
	}

	printOutcome(outcome)
	if outcome.Status != orchestrate.StatusSuccess {
		return errors.New("no candidate cleared validation; best attempt shown above")
	}
	return nil
}

func applyGenerateFlags(cfg *config.Config) {
	if providerFlag != "" {
		cfg.Model.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model.Name = modelFlag
	}
	if attemptsFlag > 0 {
		cfg.Pipeline.MaxAttempts = attemptsFlag
	}
	if noExecFlag {
		cfg.Pipeline.EnableExecution = false
	}
	if noRepairFlag {
		cfg.Pipeline.EnableASTRepair = false
	}
}

func buildClient(cfg *config.Config, logger *logging.Logger) (llm.Client, error) {
	switch cfg.Model.Provider {
	case "openai":
		apiKey := os.Getenv(cfg.Model.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("provider openai requires %s to be set", cfg.Model.APIKeyEnv)
		}
		opts := []llm.OpenAIOption{
			llm.WithRequestsPerSecond(cfg.Model.RequestsPerSecond),
			llm.WithOpenAILogger(logger.Logger),
		}
		if cfg.Model.Name != "" {
			opts = append(opts, llm.WithModel(cfg.Model.Name))
		}
		if cfg.Model.BaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.Model.BaseURL))
		}
		return llm.NewOpenAIClient(apiKey, opts...), nil
	case "ollama":
		opts := []llm.OllamaOption{llm.WithOllamaLogger(logger.Logger)}
		if cfg.Model.Name != "" {
			opts = append(opts, llm.WithOllamaModel(cfg.Model.Name))
		}
		if cfg.Model.BaseURL != "" {
			opts = append(opts, llm.WithOllamaURL(cfg.Model.BaseURL))
		}
		return llm.NewOllamaClient(opts...), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// formalize asks the model for a requirement record, retrying transient
// failures.
func formalize(ctx context.Context, client llm.Client, description string) (*ir.IR, error) {
	var lastErr error
	for try := 0; try <= maxIRRetries; try++ {
		record, err := client.GenerateIR(ctx, llm.IRRequest{Description: description})
		if err == nil {
			if record.Intent == "" {
				record.Intent = description
			}
			return record, nil
		}
		if !llm.IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func printRecord(record *ir.IR) {
	ux.Title("Requirement Record")
	ux.KeyValue("intent", record.Intent)
	ux.KeyValue("signature", record.Signature.String())
	for _, effect := range record.Effects {
		ux.Info("  effect: " + effect)
	}
	for _, assertion := range record.Assertions {
		ux.Info("  assert: " + assertion)
	}
}

func printOutcome(outcome *orchestrate.Outcome) {
	for _, warning := range outcome.Warnings {
		ux.Warning(warning)
	}

	switch outcome.Status {
	case orchestrate.StatusSuccess:
		ux.Success(fmt.Sprintf("generated in %d attempt(s)", len(outcome.Attempts)))
	default:
		ux.Warning(fmt.Sprintf("attempt budget exhausted after %d attempt(s); best candidate shown", len(outcome.Attempts)))
	}
	ux.Code(outcome.Code.Source)

	if len(outcome.Code.Repairs) > 0 {
		ux.Muted("repairs applied: " + strings.Join(outcome.Code.Repairs, ", "))
	}
	for _, attempt := range outcome.Attempts {
		line := fmt.Sprintf("attempt %d: temp %.2f, %d violation(s)",
			attempt.Attempt, attempt.Temperature, len(attempt.Violations))
		if attempt.TestResult != nil {
			line += fmt.Sprintf(", %d test failure(s)", len(attempt.TestResult.FailedTests))
		}
		ux.Muted(line)
	}
	ux.KeyValue("run", outcome.RunID)
}
