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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/extract"
)

func TestBookmarks_Process(t *testing.T) {
	ds := image(t, map[string]string{
		"Users/alice/Favorites/Google.url":       "[DEFAULT]\r\nBASEURL=http://www.google.com/\r\n[InternetShortcut]\r\nURL=http://www.google.com/\r\n",
		"Users/alice/Favorites/Links/Error.url":  "[InternetShortcut]\nURL=res://ieframe.dll/dnserror.htm\n",
		"Users/alice/Favorites/Empty.url":        "",
		"Users/alice/Documents/NotAFavorite.url": "[InternetShortcut]\nURL=http://example.com/\n",
		"Users/alice/Favorites/Links/NoURL.url":  "[InternetShortcut]\n",
	})
	store := newStore(t)
	env, files := testEnv(t, store, "")

	result := process(t, &Bookmarks{}, env, ds, nil)
	assert.Equal(t, extract.Completed, result.Status)
	assert.True(t, result.FoundData)
	assert.Empty(t, result.Errors)
	assert.NotContains(t, files.opened, "Users/alice/Favorites/Empty.url")

	bookmarks, err := store.Select(datamodel.KindWebBookmark)
	require.NoError(t, err)
	require.Len(t, bookmarks, 3)

	want := map[string]struct {
		url    string
		domain string
	}{
		"Google.url": {"http://www.google.com/", "google.com"},
		"Error.url":  {"res://ieframe.dll/dnserror.htm", ""},
		"NoURL.url":  {"", ""},
	}
	for _, bookmark := range bookmarks {
		title, _ := attribute(t, bookmark, datamodel.AttrTitle)
		w, ok := want[title]
		require.True(t, ok, title)

		url, _ := attribute(t, bookmark, datamodel.AttrURL)
		assert.Equal(t, w.url, url)
		domain, hasDomain := attribute(t, bookmark, datamodel.AttrDomain)
		assert.Equal(t, w.domain != "", hasDomain)
		assert.Equal(t, w.domain, domain)
		prog, _ := attribute(t, bookmark, datamodel.AttrProgName)
		assert.Equal(t, "Internet Explorer", prog)
		assert.Equal(t, "Recent Activity", bookmark.Module)
	}
}

func TestBookmarks_NoFiles(t *testing.T) {
	ds := image(t, map[string]string{"Users/alice/Desktop/notes.txt": "hello"})
	store := newStore(t)
	env, _ := testEnv(t, store, "")

	result := process(t, &Bookmarks{}, env, ds, nil)
	assert.Equal(t, extract.Completed, result.Status)
	assert.False(t, result.FoundData)
	assert.Empty(t, result.Errors)
	assert.Zero(t, store.posts)
}

func TestBookmarks_Cancelled(t *testing.T) {
	ds := image(t, map[string]string{
		"Users/alice/Favorites/A.url": "URL=http://a.example.com/\n",
		"Users/alice/Favorites/B.url": "URL=http://b.example.com/\n",
	})
	store := newStore(t)
	env, files := testEnv(t, store, "")

	calls := 0
	result := process(t, &Bookmarks{}, env, ds, func() bool {
		calls++
		return calls > 1
	})
	assert.Equal(t, extract.Cancelled, result.Status)
	assert.Equal(t, []string{"Users/alice/Favorites/A.url"}, files.opened)

	bookmarks, err := store.Select(datamodel.KindWebBookmark)
	require.NoError(t, err)
	assert.Len(t, bookmarks, 1)
}
