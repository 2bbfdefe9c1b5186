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

// Package extract runs extraction routines on a data source and posts the
// found artifacts to the blackboard.
package extract

import (
	"fmt"
	"log"

	"github.com/spf13/afero"

	"github.com/forensicanalysis/recentactivity/config"
	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// Blackboard is the evidence store artifacts are posted to.
type Blackboard interface {
	NewArtifact(kind datamodel.Kind, source *datamodel.FileHandle) (*datamodel.Artifact, error)
	AddAttributes(artifact *datamodel.Artifact, attributes ...datamodel.Attribute) error
	PostArtifacts(artifacts []*datamodel.Artifact, moduleName string) error
}

// FileLocator finds and opens files of a data source.
type FileLocator interface {
	FindFiles(ds *datasource.DataSource, namePattern, pathPattern string) ([]*datamodel.FileHandle, error)
	Open(ds *datasource.DataSource, handle *datamodel.FileHandle) (afero.File, error)
}

// ToolLocator resolves the binary of an external tool.
type ToolLocator interface {
	Locate(toolID string) (string, error)
}

// Env holds the collaborators of the extraction routines.
type Env struct {
	Blackboard Blackboard
	Files      FileLocator
	Tools      ToolLocator
	Config     *config.Config
	Messages   Messages
	Logger     *log.Logger
}

// Log returns the logger of the environment.
func (env *Env) Log() *log.Logger {
	if env.Logger == nil {
		return log.Default()
	}
	return env.Logger
}

// Msg formats a message with the message port of the environment.
func (env *Env) Msg(key string, args ...interface{}) string {
	if env.Messages == nil {
		return DefaultMessages.Format(key, args...)
	}
	return env.Messages.Format(key, args...)
}

// An Extractor is one extraction routine, e.g. bookmarks or history.
type Extractor interface {
	Name() string
	// Configure checks the preconditions of the routine.
	Configure(env *Env) error
	Process(ds *datasource.DataSource, cancel toolrunner.CancelCheck) Result
}

// Status is the state of a routine.
type Status int

// Routine states.
const (
	Ready Status = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of one routine on one data source.
type Result struct {
	Name      string
	Status    Status
	FoundData bool
	Errors    []string
}

// NewResult creates the result of a running routine.
func NewResult(name string) *Result {
	return &Result{Name: name, Status: Running, Errors: []string{}}
}

// AddError records a non fatal error.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Fail records an error that stops the routine.
func (r *Result) Fail(msg string) {
	r.AddError(msg)
	r.Status = Failed
}

// Cancel marks the routine as stopped by the user.
func (r *Result) Cancel() {
	r.Status = Cancelled
}

// Done completes a routine that was neither cancelled nor failed.
func (r *Result) Done() Result {
	if r.Status == Running || r.Status == Ready {
		r.Status = Completed
	}
	return *r
}
