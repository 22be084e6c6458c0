// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package exec runs the external tools the pipeline collaborates with
// (mkbootimg, unpack_bootimg, patch), capturing their output for error
// reporting.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ntherning/bootimg/log"
)

// Process describes one external command to be executed.
type Process struct {
	bin  string
	args []string
	opts options
}

type options struct {
	dir    string
	env    []string
	stdout io.Writer
}

// Option configures a Process.
type Option func(*options)

// WithDir sets the working directory of the process.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithEnv appends environment variables, on top of the host environment.
func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

// WithStdout additionally streams the process's standard output to w.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// NewProcess prepares a process from a binary name, resolved via PATH, and
// its arguments.
func NewProcess(bin string, args []string, opts ...Option) (*Process, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("could not find %q: %w", bin, err)
	}

	p := &Process{bin: path, args: args}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p, nil
}

// Cmdline returns the full command line to be executed.
func (p *Process) Cmdline() string {
	return strings.Join(append([]string{p.bin}, p.args...), " ")
}

// Run executes the process and waits for it to exit, returning the bytes
// it wrote to standard output.  A nonzero exit status is an error carrying
// the tail of the process's standard error.
func (p *Process) Run(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.bin, p.args...)
	cmd.Dir = p.opts.dir
	cmd.Env = append(os.Environ(), p.opts.env...)

	var stdout, stderr bytes.Buffer
	if p.opts.stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdout, p.opts.stdout)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	log.G(ctx).Debugf("exec: %s", p.Cmdline())

	if err := cmd.Run(); err != nil {
		if msg := lastLines(stderr.Bytes(), 5); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", p.bin, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", p.bin, err)
	}
	return stdout.Bytes(), nil
}

// lastLines returns up to n trailing non-empty lines of b on one line.
func lastLines(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "; "))
}
