// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package toolrunner launches external parser tools. Their standard streams
// are written to files and a polled cancellation check can terminate them.
package toolrunner

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

// CancelCheck reports whether the user requested cancellation. It is polled,
// never waited on.
type CancelCheck func() bool

// NotCancelled never cancels.
func NotCancelled() bool { return false }

var (
	// ErrCancelled is returned if a run was stopped by its CancelCheck.
	ErrCancelled = errors.New("cancelled")
	// ErrToolNotFound is returned if a tool binary cannot be located.
	ErrToolNotFound = errors.New("tool not found")
)

// IOError is returned if the tool could not be launched or one of its files
// could not be written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Cause implements the causer interface of github.com/pkg/errors.
func (e *IOError) Cause() error { return e.Err }

// Status is the outcome of a run that did not fail with an IOError. A non
// zero exit code is advisory, the output may still contain records.
type Status struct {
	ExitCode  int
	Cancelled bool
}

// Runner invokes one tool binary with a fixed argument template. The input
// path is appended to Args.
type Runner struct {
	Binary       string
	Args         []string
	Logger       *log.Logger
	PollInterval time.Duration
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

// Run executes the tool on input. Standard output is written to output and
// standard error to errPath, both files are left for the caller to remove.
func (r *Runner) Run(input, output, errPath string, cancel CancelCheck) (Status, error) {
	if cancel == nil {
		cancel = NotCancelled
	}
	if cancel() {
		return Status{Cancelled: true}, ErrCancelled
	}

	stdout, err := os.Create(output)
	if err != nil {
		return Status{}, &IOError{Op: "create", Path: output, Err: err}
	}
	defer stdout.Close()

	stderr, err := os.Create(errPath)
	if err != nil {
		return Status{}, &IOError{Op: "create", Path: errPath, Err: err}
	}
	defer stderr.Close()

	args := append(append([]string{}, r.Args...), input)
	cmd := exec.Command(r.Binary, args...) // #nosec
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return Status{}, &IOError{Op: "launch", Path: r.Binary, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	interval := r.PollInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return r.status(err)
		case <-ticker.C:
			if cancel() {
				killProcessGroup(cmd)
				<-done
				r.logger().Printf("%s cancelled on %s", r.Binary, input)
				return Status{Cancelled: true}, ErrCancelled
			}
		}
	}
}

func (r *Runner) status(err error) (Status, error) {
	if err == nil {
		return Status{}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.logger().Printf("%s exited with code %d", r.Binary, exitErr.ExitCode())
		return Status{ExitCode: exitErr.ExitCode()}, nil
	}
	return Status{}, &IOError{Op: "wait", Path: r.Binary, Err: err}
}
