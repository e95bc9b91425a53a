// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/codesmith-ai/codesmith/pkg/ux"
)

// --- Global Command Variables ---
var (
	providerFlag    string
	modelFlag       string
	attemptsFlag    int
	noExecFlag      bool
	noRepairFlag    bool
	plainFlag       bool
	showIRFlag      bool
	irPathFlag      string
	codePathFlag    string
	explainFlag     bool
	historyLimit    int
	historyShowCode bool

	rootCmd = &cobra.Command{
		Use:   "codesmith",
		Short: "Constraint-guided Python function generation",
		Long: `Codesmith turns a natural-language description into a tested
Python function. Generated candidates pass through constraint
validation, AST repair, and sandboxed execution before they are
accepted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if plainFlag {
				ux.SetPlain(true)
			}
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate [description]",
		Short: "Generate a validated Python function from a description",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGenerate, // Defined in cmd_generate.go
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Analyze a requirement record, and optionally a candidate, without generating",
		RunE:  runCheck, // Defined in cmd_check.go
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List past generation runs",
		RunE:  runHistoryList, // Defined in cmd_history.go
	}

	historyShowCmd = &cobra.Command{
		Use:   "show [run_id]",
		Short: "Show one run record, including its final code",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow, // Defined in cmd_history.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "Disable styled terminal output")

	generateCmd.Flags().StringVar(&providerFlag, "provider", "", "Model provider (openai or ollama), overrides config")
	generateCmd.Flags().StringVar(&modelFlag, "model", "", "Model name, overrides config")
	generateCmd.Flags().IntVar(&attemptsFlag, "attempts", 0, "Maximum generation attempts, overrides config")
	generateCmd.Flags().BoolVar(&noExecFlag, "no-exec", false, "Skip sandboxed test execution")
	generateCmd.Flags().BoolVar(&noRepairFlag, "no-repair", false, "Skip the AST repair passes")
	generateCmd.Flags().BoolVar(&showIRFlag, "show-ir", false, "Print the intermediate representation before generating")

	checkCmd.Flags().StringVar(&irPathFlag, "ir", "", "Path to a requirement record JSON file (required)")
	checkCmd.Flags().StringVar(&codePathFlag, "code", "", "Path to a Python candidate to validate against the record")
	checkCmd.Flags().BoolVar(&explainFlag, "explain", false, "Print the full constraint detection decision trail")
	_ = checkCmd.MarkFlagRequired("ir")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records to list")
	historyShowCmd.Flags().BoolVar(&historyShowCode, "code", true, "Include the final source")
	historyCmd.AddCommand(historyShowCmd)

	rootCmd.AddCommand(generateCmd, checkCmd, historyCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		ux.Error(err.Error())
		return err
	}
	return nil
}
