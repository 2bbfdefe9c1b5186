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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/pasco"
)

var indexDat = &datamodel.FileHandle{ID: 1, Name: "index.dat", Path: "Users/alice/index.dat", Size: 10}

func TestEmitter_AccountDedup(t *testing.T) {
	bb := &memoryBlackboard{}
	result := NewResult("History")
	e := NewEmitter(testEnv(bb), result)

	for _, user := range []string{"alice", "", "alice", "", "alice"} {
		e.Emit(pasco.Record{User: user, URL: "http://example.com", Domain: "example.com", Timestamp: 10}, indexDat)
	}
	e.Flush()

	assert.Empty(t, result.Errors)
	assert.Len(t, bb.posted(datamodel.KindWebHistory), 5)

	accounts := bb.posted(datamodel.KindOSAccount)
	require.Len(t, accounts, 2)
	var users []string
	for _, account := range accounts {
		user, ok := account.Attribute(datamodel.AttrUserName)
		require.True(t, ok)
		users = append(users, user.ValueString())
	}
	assert.Equal(t, []string{"alice", ""}, users)
}

func TestEmitter_Domain(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		domain     string
		wantDomain string
	}{
		{"parsed domain", "http://www.example.com/", "example.com", "example.com"},
		{"derived domain", "http://www.example.co.uk/", "", "example.co.uk"},
		{"blank url", "  ", "", ""},
		{"ignored scheme", "res://ieframe.dll/navcancl.htm", "ieframe.dll", ""},
		{"ignored scheme upper case", "RES://ieframe.dll/navcancl.htm", "ieframe.dll", ""},
		{"no host", "file:///C:/notes.txt", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bb := &memoryBlackboard{}
			e := NewEmitter(testEnv(bb), NewResult("History"))
			e.Emit(pasco.Record{URL: tt.url, Domain: tt.domain}, indexDat)
			e.Flush()

			history := bb.posted(datamodel.KindWebHistory)
			require.Len(t, history, 1, "blank and ignored urls are still emitted")

			domain, ok := history[0].Attribute(datamodel.AttrDomain)
			if tt.wantDomain == "" {
				assert.False(t, ok, "domain attribute must be omitted")
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.wantDomain, domain.ValueString())
		})
	}
}

func TestEmitter_HistoryAttributes(t *testing.T) {
	bb := &memoryBlackboard{}
	e := NewEmitter(testEnv(bb), NewResult("History"))
	e.Emit(pasco.Record{User: "alice", URL: "http://example.com", Domain: "example.com", Timestamp: 1410472218}, indexDat)
	e.Flush()

	history := bb.posted(datamodel.KindWebHistory)
	require.Len(t, history, 1)
	assert.Equal(t, "Recent Activity", history[0].Module)
	assert.Equal(t, "index.dat", history[0].SourceName)

	var types []datamodel.AttributeType
	for _, attribute := range history[0].Attributes {
		types = append(types, attribute.Type)
		assert.Equal(t, "Recent Activity", attribute.Source)
	}
	assert.Equal(t, []datamodel.AttributeType{
		datamodel.AttrURL, datamodel.AttrDateTimeAccessed, datamodel.AttrReferrer,
		datamodel.AttrProgName, datamodel.AttrUserName, datamodel.AttrDomain,
	}, types)

	accessed, _ := history[0].Attribute(datamodel.AttrDateTimeAccessed)
	assert.Equal(t, int64(1410472218), accessed.Value)
}

func TestEmitter_RejectedRecord(t *testing.T) {
	bb := &memoryBlackboard{rejectValue: "http://bad.example.com"}
	result := NewResult("History")
	e := NewEmitter(testEnv(bb), result)

	for _, url := range []string{"http://a.example.com", "http://bad.example.com", "http://c.example.com"} {
		e.Emit(pasco.Record{User: "alice", URL: url}, indexDat)
	}
	e.Flush()

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "index.dat")
	assert.Contains(t, result.Errors[0], "History")
	assert.Len(t, bb.posted(datamodel.KindWebHistory), 2)
	assert.Len(t, bb.posted(datamodel.KindOSAccount), 1)
}

func TestEmitter_PostFailure(t *testing.T) {
	tests := []struct {
		name          string
		failKind      datamodel.Kind
		wantHistory   int
		wantAccounts  int
		wantErrorPart string
	}{
		{"primary batch fails", datamodel.KindWebHistory, 0, 1, "3 primary artifacts of Users/alice/index.dat"},
		{"secondary batch fails", datamodel.KindOSAccount, 3, 0, "1 account artifacts of Users/alice/index.dat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bb := &memoryBlackboard{failPost: map[datamodel.Kind]bool{tt.failKind: true}}
			result := NewResult("History")
			result.FoundData = true
			e := NewEmitter(testEnv(bb), result)

			for i := 0; i < 3; i++ {
				e.Emit(pasco.Record{User: "alice", URL: "http://example.com"}, indexDat)
			}
			e.Flush()

			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErrorPart)
			assert.True(t, result.FoundData)
			assert.Len(t, bb.posted(datamodel.KindWebHistory), tt.wantHistory)
			assert.Len(t, bb.posted(datamodel.KindOSAccount), tt.wantAccounts)

			primary, secondary := e.Pending()
			assert.Zero(t, primary)
			assert.Zero(t, secondary)
		})
	}
}

func TestEmitter_PostFailureNamesFiles(t *testing.T) {
	bb := &memoryBlackboard{failPost: map[datamodel.Kind]bool{datamodel.KindWebHistory: true}}
	result := NewResult("Bookmarks")
	e := NewEmitter(testEnv(bb), result)

	google := &datamodel.FileHandle{ID: 2, Name: "Google.url", Path: "Users/alice/Favorites/Google.url"}
	bing := &datamodel.FileHandle{ID: 3, Name: "Bing.url", Path: "Users/alice/Favorites/Links/Bing.url"}
	for _, source := range []*datamodel.FileHandle{google, bing, google} {
		e.Primary(datamodel.KindWebBookmark, source, "http://example.com", "")
	}
	e.Flush()

	require.Len(t, result.Errors, 1)
	assert.Equal(t,
		"Bookmarks: could not post 3 primary artifacts of Users/alice/Favorites/Google.url, Users/alice/Favorites/Links/Bing.url: database is locked",
		result.Errors[0])

	e.Primary(datamodel.KindWebBookmark, bing, "http://example.com", "")
	e.Flush()
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[1], "1 primary artifacts of Users/alice/Favorites/Links/Bing.url: ")
}

func TestEmitter_FlushEmpty(t *testing.T) {
	bb := &memoryBlackboard{}
	result := NewResult("Bookmarks")
	NewEmitter(testEnv(bb), result).Flush()

	assert.Empty(t, bb.batches)
	assert.Empty(t, result.Errors)
}
