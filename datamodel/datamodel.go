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

// Package datamodel contains the types shared between the extractors, the
// evidence store and the correlation of stored artifacts.
package datamodel

import (
	"log"
	"math"
	"time"
)

// TimeFormat is used for all timestamps stored as text.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Kind is the type of an artifact, e.g. web_history.
type Kind string

// Artifact kinds.
const (
	KindWebBookmark Kind = "web_bookmark"
	KindWebCookie   Kind = "web_cookie"
	KindWebHistory  Kind = "web_history"
	KindOSAccount   Kind = "os_account"
	KindMessage     Kind = "message"
	KindEmailMsg    Kind = "email_msg"
	KindCallLog     Kind = "call_log"
)

// AttributeType names a single fact on an artifact.
type AttributeType string

// Attribute types.
const (
	AttrURL              AttributeType = "url"
	AttrDomain           AttributeType = "domain"
	AttrTitle            AttributeType = "title"
	AttrName             AttributeType = "name"
	AttrValue            AttributeType = "value"
	AttrProgName         AttributeType = "prog_name"
	AttrReferrer         AttributeType = "referrer"
	AttrUserName         AttributeType = "user_name"
	AttrThreadID         AttributeType = "thread_id"
	AttrDateTime         AttributeType = "datetime"
	AttrDateTimeCreated  AttributeType = "datetime_created"
	AttrDateTimeAccessed AttributeType = "datetime_accessed"
	AttrDateTimeSent     AttributeType = "datetime_sent"
)

// Attribute is a typed value. Values are either strings or integers (seconds
// since the epoch for all datetime attributes).
type Attribute struct {
	Type   AttributeType `json:"type"`
	Value  interface{}   `json:"value"`
	Source string        `json:"source,omitempty"`
}

// NewString creates a text attribute.
func NewString(attributeType AttributeType, source, value string) Attribute {
	return Attribute{Type: attributeType, Value: value, Source: source}
}

// NewInt creates an integer attribute.
func NewInt(attributeType AttributeType, source string, value int64) Attribute {
	return Attribute{Type: attributeType, Value: value, Source: source}
}

// NewTime creates a datetime attribute. The zero time is stored as 0.
func NewTime(attributeType AttributeType, source string, value time.Time) Attribute {
	if value.IsZero() {
		return NewInt(attributeType, source, 0)
	}
	return NewInt(attributeType, source, value.Unix())
}

// ValueString returns the value of a text attribute.
func (a Attribute) ValueString() string {
	if s, ok := a.Value.(string); ok {
		return s
	}
	return ""
}

// ValueInt returns the value of an integer attribute. JSON decoding yields
// float64, so whole floats are accepted as well.
func (a Attribute) ValueInt() (int64, bool) {
	switch v := a.Value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	}
	return 0, false
}

// Artifact is a typed bundle of attributes extracted from a source file.
type Artifact struct {
	ID         string      `json:"id"`
	Type       Kind        `json:"type"`
	Source     string      `json:"source,omitempty"`
	SourceName string      `json:"source_name,omitempty"`
	Module     string      `json:"module,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute returns the first attribute of the given type.
func (a *Artifact) Attribute(attributeType AttributeType) (Attribute, bool) {
	for _, attribute := range a.Attributes {
		if attribute.Type == attributeType {
			return attribute, true
		}
	}
	return Attribute{}, false
}

// FileHandle identifies a file in a data source. It is created by the file
// locator and read-only for everyone else.
type FileHandle struct {
	ID     int64
	Name   string
	Path   string
	Size   int64
	Crtime time.Time
	Atime  time.Time
	Mtime  time.Time
}

// File implements a STIX 2.1 File Object. Every artifact references the
// file element of the file it was extracted from.
type File struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Size   float64                `json:"size,omitempty"`
	Name   string                 `json:"name"`
	Ctime  string                 `json:"ctime,omitempty"`
	Mtime  string                 `json:"mtime,omitempty"`
	Atime  string                 `json:"atime,omitempty"`
	Origin map[string]interface{} `json:"origin,omitempty"`
	Errors []interface{}          `json:"errors,omitempty"`
}

// NewFile creates the STIX file element for a file handle. The id is set by
// the store.
func NewFile(handle *FileHandle) *File {
	return &File{
		Type:   "file",
		Name:   handle.Name,
		Size:   float64(handle.Size),
		Ctime:  formatTime(handle.Crtime),
		Mtime:  formatTime(handle.Mtime),
		Atime:  formatTime(handle.Atime),
		Origin: map[string]interface{}{"path": handle.Path},
	}
}

// AddError adds an error string to a File and returns this File.
func (i *File) AddError(err string) *File {
	log.Print(err)
	i.Errors = append(i.Errors, err)
	return i
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}
