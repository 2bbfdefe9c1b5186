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

package extract

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// Pipeline runs the enabled routines of a module one after another.
type Pipeline struct {
	env        *Env
	extractors []Extractor
}

// NewPipeline creates a pipeline for extractors.
func NewPipeline(env *Env, extractors ...Extractor) *Pipeline {
	return &Pipeline{env: env, extractors: extractors}
}

// Summary is the module level result of one data source.
type Summary struct {
	Module     string
	DataSource string
	Results    []Result
}

// FoundData reports whether any routine found data.
func (s Summary) FoundData() bool {
	for _, r := range s.Results {
		if r.FoundData {
			return true
		}
	}
	return false
}

// Errors returns the errors of all routines in order.
func (s Summary) Errors() []string {
	errs := []string{}
	for _, r := range s.Results {
		errs = append(errs, r.Errors...)
	}
	return errs
}

// Cancelled reports whether the run was stopped by the user.
func (s Summary) Cancelled() bool {
	for _, r := range s.Results {
		if r.Status == Cancelled {
			return true
		}
	}
	return false
}

func (s Summary) String() string {
	state := "completed"
	if s.Cancelled() {
		state = "cancelled"
	}
	errs := s.Errors()
	if len(errs) == 0 {
		return fmt.Sprintf("%s on %s %s", s.Module, s.DataSource, state)
	}
	return fmt.Sprintf("%s on %s %s with %d errors:\n  %s", s.Module, s.DataSource, state, len(errs), strings.Join(errs, "\n  "))
}

// Run processes one data source. Once a routine was cancelled no further
// routine is started.
func (p *Pipeline) Run(ds *datasource.DataSource, cancel toolrunner.CancelCheck) Summary {
	if cancel == nil {
		cancel = toolrunner.NotCancelled
	}
	summary := Summary{Module: p.env.Config.ModuleName, DataSource: ds.Name}

	for _, extractor := range p.extractors {
		if !p.env.Config.Enabled(extractor.Name()) {
			continue
		}
		if cancel() {
			summary.Results = append(summary.Results, Result{Name: extractor.Name(), Status: Cancelled, Errors: []string{}})
			break
		}

		var result Result
		if err := extractor.Configure(p.env); err != nil {
			r := NewResult(extractor.Name())
			r.Fail(p.env.Msg(MsgConfigure, extractor.Name(), err))
			result = *r
		} else {
			result = extractor.Process(ds, cancel)
		}
		p.env.Log().Printf("%s: %s (found data: %t, %d errors)", result.Name, result.Status, result.FoundData, len(result.Errors))

		summary.Results = append(summary.Results, result)
		if result.Status == Cancelled {
			break
		}
	}
	return summary
}

// RunAll processes data sources concurrently, at most workers at a time.
// Every data source gets its own routines from newExtractors so no temporary
// state is shared.
func RunAll(env *Env, sources []*datasource.DataSource, workers int, cancel toolrunner.CancelCheck, newExtractors func() []Extractor) []Summary {
	summaries := make([]Summary, len(sources))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, ds := range sources {
		i, ds := i, ds
		g.Go(func() error {
			summaries[i] = NewPipeline(env, newExtractors()...).Run(ds, cancel)
			return nil
		})
	}
	_ = g.Wait()
	return summaries
}
