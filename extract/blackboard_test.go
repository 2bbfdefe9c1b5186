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
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/recentactivity/config"
	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
)

// memoryBlackboard keeps posted batches in memory and fails on demand.
type memoryBlackboard struct {
	mu      sync.Mutex
	next    int
	batches [][]*datamodel.Artifact

	rejectValue string
	failPost    map[datamodel.Kind]bool
}

func (bb *memoryBlackboard) NewArtifact(kind datamodel.Kind, source *datamodel.FileHandle) (*datamodel.Artifact, error) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	bb.next++
	artifact := &datamodel.Artifact{ID: fmt.Sprintf("%s--%d", kind, bb.next), Type: kind}
	if source != nil {
		artifact.SourceName = source.Name
	}
	return artifact, nil
}

func (bb *memoryBlackboard) AddAttributes(artifact *datamodel.Artifact, attributes ...datamodel.Attribute) error {
	for _, attribute := range attributes {
		if bb.rejectValue != "" && attribute.Value == bb.rejectValue {
			return errors.New("rejected attribute")
		}
	}
	artifact.Attributes = append(artifact.Attributes, attributes...)
	return nil
}

func (bb *memoryBlackboard) PostArtifacts(artifacts []*datamodel.Artifact, moduleName string) error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	for _, artifact := range artifacts {
		if bb.failPost[artifact.Type] {
			return errors.New("database is locked")
		}
	}
	for _, artifact := range artifacts {
		artifact.Module = moduleName
	}
	bb.batches = append(bb.batches, artifacts)
	return nil
}

func (bb *memoryBlackboard) posted(kind datamodel.Kind) []*datamodel.Artifact {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	var artifacts []*datamodel.Artifact
	for _, batch := range bb.batches {
		for _, artifact := range batch {
			if artifact.Type == kind {
				artifacts = append(artifacts, artifact)
			}
		}
	}
	return artifacts
}

func testEnv(bb Blackboard) *Env {
	return &Env{
		Blackboard: bb,
		Files:      datasource.NewLocator(),
		Config:     config.Default(),
		Logger:     log.New(io.Discard, "", 0),
	}
}
