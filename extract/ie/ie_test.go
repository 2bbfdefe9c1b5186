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

package ie

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/recentactivity/blackboard"
	"github.com/forensicanalysis/recentactivity/config"
	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/extract"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// countingBlackboard counts posts and can fail the posts of one kind.
type countingBlackboard struct {
	*blackboard.Store
	posts    int32
	failKind datamodel.Kind
}

func (c *countingBlackboard) PostArtifacts(artifacts []*datamodel.Artifact, moduleName string) error {
	atomic.AddInt32(&c.posts, 1)
	if c.failKind != "" && len(artifacts) > 0 && artifacts[0].Type == c.failKind {
		return errors.Wrap(blackboard.ErrPost, "disk full")
	}
	return c.Store.PostArtifacts(artifacts, moduleName)
}

// recordingLocator records which files were opened.
type recordingLocator struct {
	*datasource.Locator
	mu     sync.Mutex
	opened []string
}

func (r *recordingLocator) Open(ds *datasource.DataSource, handle *datamodel.FileHandle) (afero.File, error) {
	r.mu.Lock()
	r.opened = append(r.opened, handle.Path)
	r.mu.Unlock()
	return r.Locator.Open(ds, handle)
}

func newStore(t *testing.T) *countingBlackboard {
	store, err := blackboard.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) // nolint:errcheck
	return &countingBlackboard{Store: store}
}

// pascoScript writes a stand in for pasco2 that prints its input file.
func pascoScript(t *testing.T, body string) string {
	p := filepath.Join(t.TempDir(), "pasco2")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0700)) // #nosec
	return p
}

func testEnv(t *testing.T, bb extract.Blackboard, tool string) (*extract.Env, *recordingLocator) {
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	cfg.Tools = map[string]string{PascoToolID: tool}

	files := &recordingLocator{Locator: datasource.NewLocator()}
	return &extract.Env{
		Blackboard: bb,
		Files:      files,
		Tools:      &toolrunner.Locator{Tools: cfg.Tools},
		Config:     cfg,
		Logger:     log.New(io.Discard, "", 0),
	}, files
}

func image(t *testing.T, files map[string]string) *datasource.DataSource {
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return &datasource.DataSource{Name: "image", Fs: fs}
}

func attribute(t *testing.T, artifact *datamodel.Artifact, attributeType datamodel.AttributeType) (string, bool) {
	a, ok := artifact.Attribute(attributeType)
	if !ok {
		return "", false
	}
	return a.ValueString(), true
}

func process(t *testing.T, extractor extract.Extractor, env *extract.Env, ds *datasource.DataSource, cancel toolrunner.CancelCheck) extract.Result {
	require.NoError(t, extractor.Configure(env))
	if cancel == nil {
		cancel = toolrunner.NotCancelled
	}
	return extractor.Process(ds, cancel)
}
