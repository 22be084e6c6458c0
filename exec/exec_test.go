// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package exec_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ntherning/bootimg/exec"
)

func TestRunCapturesStdout(t *testing.T) {
	p, err := exec.NewProcess("sh", []string{"-c", "echo hello"})
	if err != nil {
		t.Fatal("NewProcess:", err)
	}

	out, err := p.Run(context.Background())
	if err != nil {
		t.Fatal("Run:", err)
	}
	if got := strings.TrimSpace(string(out)); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	p, err := exec.NewProcess("sh", []string{"-c", "echo broken >&2; exit 3"})
	if err != nil {
		t.Fatal("NewProcess:", err)
	}

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded, want exit status error")
	} else if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not carry stderr output", err)
	}
}

func TestRunWithDir(t *testing.T) {
	dir := t.TempDir()
	p, err := exec.NewProcess("pwd", nil, exec.WithDir(dir))
	if err != nil {
		t.Fatal("NewProcess:", err)
	}

	out, err := p.Run(context.Background())
	if err != nil {
		t.Fatal("Run:", err)
	}
	if got := strings.TrimSpace(string(out)); got != dir {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
}

func TestRunWithStdout(t *testing.T) {
	var buf bytes.Buffer
	p, err := exec.NewProcess("sh", []string{"-c", "echo teed"}, exec.WithStdout(&buf))
	if err != nil {
		t.Fatal("NewProcess:", err)
	}

	out, err := p.Run(context.Background())
	if err != nil {
		t.Fatal("Run:", err)
	}
	if !bytes.Equal(out, buf.Bytes()) {
		t.Errorf("tee output %q differs from captured %q", buf.Bytes(), out)
	}
}

func TestNewProcessMissingBinary(t *testing.T) {
	if _, err := exec.NewProcess("definitely-not-a-binary-8f2a", nil); err == nil {
		t.Error("NewProcess resolved a binary that does not exist")
	}
}
