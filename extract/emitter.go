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
	"strings"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/pasco"
)

// ProgName is the browser all routines extract artifacts of.
const ProgName = "Internet Explorer"

const domainCacheSize = 4096

// Emitter turns parsed records into artifacts and collects them for batched
// posts. Failures are recorded on the result of the routine.
type Emitter struct {
	env    *Env
	result *Result

	primary   []*datamodel.Artifact
	secondary []*datamodel.Artifact
	// files of the queued artifacts, per batch
	primaryFiles   sources
	secondaryFiles sources
	users          map[string]bool
	domains        *pasco.DomainCache
}

// NewEmitter creates an Emitter that records its errors on result.
func NewEmitter(env *Env, result *Result) *Emitter {
	domains, err := pasco.NewDomainCache(domainCacheSize)
	if err != nil {
		panic(err) // domainCacheSize must be positive
	}
	return &Emitter{env: env, result: result, users: map[string]bool{}, domains: domains}
}

// Ignored reports whether no domain should be attributed to url.
func (e *Emitter) Ignored(url string) bool {
	if strings.TrimSpace(url) == "" {
		return true
	}
	lower := strings.ToLower(url)
	for _, prefix := range e.env.Config.IgnoredURLPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// Primary builds an artifact of kind and queues it for the primary batch.
// A domain attribute is added for url unless it is ignored. The artifact is
// dropped if the blackboard rejects it.
func (e *Emitter) Primary(kind datamodel.Kind, source *datamodel.FileHandle, url, domain string, attributes ...datamodel.Attribute) bool {
	if !e.Ignored(url) {
		if domain == "" {
			domain = e.domains.Domain(url)
		}
		if domain != "" {
			attributes = append(attributes, e.String(datamodel.AttrDomain, domain))
		}
	}

	artifact := e.build(kind, source, attributes)
	if artifact == nil {
		return false
	}
	e.primary = append(e.primary, artifact)
	e.primaryFiles.add(source)
	return true
}

// Account queues an account artifact for the secondary batch, once per user.
// The empty user is emitted once as well.
func (e *Emitter) Account(user string, source *datamodel.FileHandle) bool {
	if e.users[user] {
		return false
	}

	artifact := e.build(datamodel.KindOSAccount, source, []datamodel.Attribute{
		e.String(datamodel.AttrUserName, user),
	})
	if artifact == nil {
		return false
	}
	e.users[user] = true
	e.secondary = append(e.secondary, artifact)
	e.secondaryFiles.add(source)
	return true
}

// Emit queues the history artifact of a record and the account of its user.
func (e *Emitter) Emit(record pasco.Record, source *datamodel.FileHandle) {
	e.Primary(datamodel.KindWebHistory, source, record.URL, record.Domain,
		e.String(datamodel.AttrURL, record.URL),
		datamodel.NewInt(datamodel.AttrDateTimeAccessed, e.env.Config.ModuleName, record.Timestamp),
		e.String(datamodel.AttrReferrer, ""),
		e.String(datamodel.AttrProgName, ProgName),
		e.String(datamodel.AttrUserName, record.User),
	)
	e.Account(record.User, source)
}

// String creates a text attribute attributed to the module.
func (e *Emitter) String(attributeType datamodel.AttributeType, value string) datamodel.Attribute {
	return datamodel.NewString(attributeType, e.env.Config.ModuleName, value)
}

func (e *Emitter) build(kind datamodel.Kind, source *datamodel.FileHandle, attributes []datamodel.Attribute) *datamodel.Artifact {
	artifact, err := e.env.Blackboard.NewArtifact(kind, source)
	if err == nil {
		err = e.env.Blackboard.AddAttributes(artifact, attributes...)
	}
	if err != nil {
		name := ""
		if source != nil {
			name = source.Name
		}
		msg := e.env.Msg(MsgArtifactFailed, e.result.Name, name, err)
		e.env.Log().Print(msg)
		e.result.AddError(msg)
		return nil
	}
	return artifact
}

// Flush posts the primary and the secondary batch separately. A failed post
// is recorded as a single error and does not affect the other batch.
func (e *Emitter) Flush() {
	e.post(e.primary, "primary", e.primaryFiles)
	e.post(e.secondary, "account", e.secondaryFiles)
	e.primary, e.primaryFiles = nil, nil
	e.secondary, e.secondaryFiles = nil, nil
}

func (e *Emitter) post(batch []*datamodel.Artifact, name string, files sources) {
	if len(batch) == 0 {
		return
	}
	if err := e.env.Blackboard.PostArtifacts(batch, e.env.Config.ModuleName); err != nil {
		msg := e.env.Msg(MsgPostFailed, e.result.Name, len(batch), name, files, err)
		e.env.Log().Print(msg)
		e.result.AddError(msg)
	}
}

// sources lists the distinct paths of source files in order.
type sources []string

func (s *sources) add(source *datamodel.FileHandle) {
	if source == nil {
		return
	}
	name := source.Path
	if name == "" {
		name = source.Name
	}
	for _, known := range *s {
		if known == name {
			return
		}
	}
	*s = append(*s, name)
}

func (s sources) String() string {
	if len(s) == 0 {
		return "unknown files"
	}
	return strings.Join(s, ", ")
}

// Pending returns the number of queued primary and secondary artifacts.
func (e *Emitter) Pending() (primary, secondary int) {
	return len(e.primary), len(e.secondary)
}
