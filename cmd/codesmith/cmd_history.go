// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesmith-ai/codesmith/pkg/ux"
	"github.com/codesmith-ai/codesmith/services/forge/config"
	"github.com/codesmith-ai/codesmith/services/forge/history"
)

func openHistory() (history.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("history is disabled in the config")
	}
	return history.Open(cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ux.Muted("no runs recorded yet")
		return nil
	}

	ux.Title("Generation Runs")
	for _, rec := range records {
		ux.Info(fmt.Sprintf("%s  %s  %-10s  %d attempt(s)  %s",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			rec.ID, rec.Status, rec.Attempts, rec.Function))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no run with id %s", args[0])
		}
		return err
	}

	ux.Title("Run " + rec.ID)
	ux.KeyValue("function", rec.Function)
	ux.KeyValue("status", rec.Status)
	ux.KeyValue("attempts", fmt.Sprintf("%d", rec.Attempts))
	ux.KeyValue("created", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if rec.Diagnostic != "" {
		ux.Warning(rec.Diagnostic)
	}
	if historyShowCode && rec.Source != "" {
		ux.Code(rec.Source)
	}
	return nil
}
