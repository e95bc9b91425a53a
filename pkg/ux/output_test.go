// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, usePlain bool, fn func()) string {
	t.Helper()
	var buf bytes.Buffer

	mu.Lock()
	prevOut := out
	prevPlain, prevSet := plain, plainSet
	out = &buf
	plain, plainSet = usePlain, true
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		out = prevOut
		plain, plainSet = prevPlain, prevSet
		mu.Unlock()
	})

	fn()
	return buf.String()
}

func TestPlainOutput(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		want string
	}{
		{"success", func() { Success("generated count_chars") }, "OK: generated count_chars\n"},
		{"warning", func() { Warning("attempt rejected") }, "WARN: attempt rejected\n"},
		{"info", func() { Info("3 test cases") }, "3 test cases\n"},
		{"title", func() { Title("Run Summary") }, "Run Summary\n"},
		{"keyvalue", func() { KeyValue("status", "success") }, "status: success\n"},
		{"muted suppressed", func() { Muted("detail") }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := captureOutput(t, true, tt.fn)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCode_TrimsTrailingNewlines(t *testing.T) {
	got := captureOutput(t, true, func() { Code("def f(s):\n    return len(s)\n\n") })
	assert.Equal(t, "def f(s):\n    return len(s)\n", got)
}

func TestStyledOutputContainsText(t *testing.T) {
	got := captureOutput(t, false, func() {
		Title("Run Summary")
		Success("done")
		Info("detail")
	})
	assert.Contains(t, got, "Run Summary")
	assert.Contains(t, got, "done")
	assert.Contains(t, got, "detail")
}

func TestSpinnerPlainMode(t *testing.T) {
	got := captureOutput(t, true, func() {
		s := NewSpinner("validating candidate")
		s.Start()
		s.UpdateMessage("running tests")
		s.Stop()
	})
	assert.Contains(t, got, "PROGRESS: validating candidate")
	assert.Contains(t, got, "PROGRESS: running tests")
}

func TestSpinnerRestart(t *testing.T) {
	got := captureOutput(t, false, func() {
		s := NewSpinner("working")
		for i := 0; i < 2; i++ {
			s.Start()
			time.Sleep(120 * time.Millisecond)
			s.Stop()
		}
	})
	assert.Contains(t, got, "working")
}
