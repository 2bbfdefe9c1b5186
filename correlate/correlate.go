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

// Package correlate collapses stored messages into conversation threads. Each
// thread is represented by its earliest message.
package correlate

import (
	"sort"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

// Keys of messages without an explicit thread.
const (
	Unthreaded    = "unthreaded"
	CallLogThread = "call-log thread"
)

// Kinds lists the artifact kinds that take part in the correlation.
var Kinds = []datamodel.Kind{datamodel.KindMessage, datamodel.KindEmailMsg, datamodel.KindCallLog}

// KeyFunc derives the correlation key of an artifact.
type KeyFunc func(artifact *datamodel.Artifact) string

// Group is a set of artifacts sharing a key.
type Group struct {
	Key            string
	Representative *datamodel.Artifact
	Members        int
}

// ThreadKey returns the thread id of a message. Call logs always share one
// thread, their thread id is ignored.
func ThreadKey(artifact *datamodel.Artifact) string {
	if artifact.Type == datamodel.KindCallLog {
		return CallLogThread
	}
	if threadID, ok := artifact.Attribute(datamodel.AttrThreadID); ok {
		return threadID.ValueString()
	}
	return Unthreaded
}

// Correlated reports whether artifacts of kind are grouped.
func Correlated(kind datamodel.Kind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// GroupBy selects one representative per key in a single pass. A later
// member replaces the representative only if both carry a sent time and the
// later one is strictly earlier. Artifacts of other kinds are skipped.
func GroupBy(artifacts []*datamodel.Artifact, key KeyFunc) map[string]*Group {
	if key == nil {
		key = ThreadKey
	}

	groups := map[string]*Group{}
	for _, artifact := range artifacts {
		if artifact == nil || !Correlated(artifact.Type) {
			continue
		}

		k := key(artifact)
		group, ok := groups[k]
		if !ok {
			groups[k] = &Group{Key: k, Representative: artifact, Members: 1}
			continue
		}
		group.Members++

		sent, ok := timestamp(artifact)
		if !ok {
			continue
		}
		current, ok := timestamp(group.Representative)
		if ok && sent < current {
			group.Representative = artifact
		}
	}
	return groups
}

// Sorted returns the groups ordered by key.
func Sorted(groups map[string]*Group) []*Group {
	sorted := make([]*Group, 0, len(groups))
	for _, group := range groups {
		sorted = append(sorted, group)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	return sorted
}

// Selector reads stored artifacts of the given kinds.
type Selector interface {
	Select(kinds ...datamodel.Kind) ([]*datamodel.Artifact, error)
}

// Threads groups all stored messages by thread.
func Threads(store Selector) ([]*Group, error) {
	artifacts, err := store.Select(Kinds...)
	if err != nil {
		return nil, err
	}
	return Sorted(GroupBy(artifacts, ThreadKey)), nil
}

func timestamp(artifact *datamodel.Artifact) (int64, bool) {
	attribute, ok := artifact.Attribute(datamodel.AttrDateTimeSent)
	if !ok {
		return 0, false
	}
	return attribute.ValueInt()
}
