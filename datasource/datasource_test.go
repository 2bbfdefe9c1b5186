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

package datasource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFiles = map[string]string{
	"Users/alice/Favorites/Google.url":                                          "[InternetShortcut]\nURL=http://www.google.com/\n",
	"Users/alice/Favorites/Links/Bing.URL":                                      "[InternetShortcut]\nURL=http://www.bing.com/\n",
	"Users/alice/Documents/readme.url":                                          "[InternetShortcut]\nURL=http://example.com/\n",
	"Users/alice/AppData/Roaming/Microsoft/Windows/Cookies/alice@google[1].txt": "PREF\nID=1\ngoogle.com/\n",
	"Users/alice/AppData/Local/History/History.IE5/index.dat":                   "Client UrlCache MMF Ver 5.2",
	"Users/bob/AppData/Local/History/History.IE5/index.dat":                     "",
}

func memFS(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	for name, content := range testFiles {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return fs
}

func paths(t *testing.T, ds *DataSource, l *Locator, name, parent string) []string {
	handles, err := l.FindFiles(ds, name, parent)
	require.NoError(t, err)
	var got []string
	for _, handle := range handles {
		got = append(got, handle.Path)
	}
	return got
}

func TestLocator_FindFiles(t *testing.T) {
	ds := &DataSource{Name: "image", Fs: memFS(t)}

	tests := []struct {
		name        string
		namePattern string
		pathPattern string
		want        []string
	}{
		{"bookmarks", "%.url", "Favorites", []string{
			"Users/alice/Favorites/Google.url",
			"Users/alice/Favorites/Links/Bing.URL",
		}},
		{"all url files", "%.url", "", []string{
			"Users/alice/Documents/readme.url",
			"Users/alice/Favorites/Google.url",
			"Users/alice/Favorites/Links/Bing.URL",
		}},
		{"cookies", "%.txt", "cookies", []string{
			"Users/alice/AppData/Roaming/Microsoft/Windows/Cookies/alice@google[1].txt",
		}},
		{"history", "index.dat", "", []string{
			"Users/alice/AppData/Local/History/History.IE5/index.dat",
			"Users/bob/AppData/Local/History/History.IE5/index.dat",
		}},
		{"single character", "index.da_", "%bob%", []string{
			"Users/bob/AppData/Local/History/History.IE5/index.dat",
		}},
		{"no candidates", "%.lnk", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths(t, ds, NewLocator(), tt.namePattern, tt.pathPattern))
		})
	}
}

func TestLocator_FindFilesNested(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := []string{
		"Users/alice/AppData/Local/Microsoft/Windows/History/History.IE5/index.dat",
		"Users/alice/AppData/Local/Microsoft/Windows/History/History.IE5/MSHist012020010120200108/index.dat",
		"Users/alice/Favorites/Links/Bing.url",
		"Documents and Settings/bob/Local Settings/Application Data/Microsoft/Internet Explorer/Profiles/a/b/c/d/e/f/index.dat",
	}
	for _, name := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0644))
	}
	ds := &DataSource{Name: "image", Fs: fs}

	tests := []struct {
		name        string
		namePattern string
		pathPattern string
		want        []string
	}{
		{"ie5 history", "index.dat", "History.IE5", []string{
			"Users/alice/AppData/Local/Microsoft/Windows/History/History.IE5/MSHist012020010120200108/index.dat",
			"Users/alice/AppData/Local/Microsoft/Windows/History/History.IE5/index.dat",
		}},
		{"deep profile", "index.dat", "%profiles%", []string{
			"Documents and Settings/bob/Local Settings/Application Data/Microsoft/Internet Explorer/Profiles/a/b/c/d/e/f/index.dat",
		}},
		{"bookmark links", "%.url", "Favorites", []string{
			"Users/alice/Favorites/Links/Bing.url",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths(t, ds, NewLocator(), tt.namePattern, tt.pathPattern))
		})
	}
}

func TestLocator_StableIDs(t *testing.T) {
	ds := &DataSource{Name: "image", Fs: memFS(t)}
	l := NewLocator()

	first, err := l.FindFiles(ds, "index.dat", "")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].ID)
	assert.Equal(t, int64(2), first[1].ID)
	assert.Equal(t, "index.dat", first[0].Name)
	assert.Equal(t, int64(len(testFiles["Users/alice/AppData/Local/History/History.IE5/index.dat"])), first[0].Size)
	assert.False(t, first[0].Crtime.IsZero())

	_, err = l.FindFiles(ds, "%.url", "")
	require.NoError(t, err)

	again, err := l.FindFiles(ds, "index.dat", "")
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, first[1].ID, again[1].ID)

	f, err := l.Open(ds, again[0])
	require.NoError(t, err)
	defer f.Close()
	content, err := afero.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "Client UrlCache MMF Ver 5.2", string(content))
}

func Test_globPattern(t *testing.T) {
	tests := []struct {
		like string
		want string
	}{
		{"%.url", "*.[uU][rR][lL]"},
		{"index.da_", "[iI][nN][dD][eE][xX].[dD][aA]?"},
		{"a[1].txt", "[aA]\\[1\\].[tT][xX][tT]"},
	}
	for _, tt := range tests {
		t.Run(tt.like, func(t *testing.T) {
			assert.Equal(t, tt.want, globPattern(tt.like))
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Users", "alice", "Favorites"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Users", "alice", "Favorites", "Google.url"), []byte("URL=http://www.google.com/"), 0600))

	ds, err := Open(dir)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, []string{"Users/alice/Favorites/Google.url"}, paths(t, ds, NewLocator(), "%.url", "Favorites"))
	assert.Error(t, afero.WriteFile(ds.Fs, "new.txt", []byte("x"), 0600))

	_, err = Open(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, ErrStoreAccess))
}

func TestArchive(t *testing.T) {
	url := filepath.Join(t.TempDir(), "image.sqlar")
	require.NoError(t, Pack(url, memFS(t), "Users"))

	ds, err := Open(url)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, "image.sqlar", ds.Name)
	assert.Equal(t, []string{
		"Users/alice/Favorites/Google.url",
		"Users/alice/Favorites/Links/Bing.URL",
	}, paths(t, ds, NewLocator(), "%.url", "favorites"))

	tests := []struct {
		name string
	}{
		{"Users/alice/Favorites/Google.url"},
		{"Users/alice/AppData/Roaming/Microsoft/Windows/Cookies/alice@google[1].txt"},
		{"Users/bob/AppData/Local/History/History.IE5/index.dat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := afero.ReadFile(ds.Fs, tt.name)
			require.NoError(t, err)
			assert.Equal(t, testFiles[tt.name], string(content))

			info, err := ds.Fs.Stat(tt.name)
			require.NoError(t, err)
			assert.False(t, info.IsDir())
			assert.Equal(t, int64(len(testFiles[tt.name])), info.Size())
		})
	}

	info, err := ds.Fs.Stat("Users/alice")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = ds.Fs.Stat("Users/carol")
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, ds.Fs.Remove("Users/alice/Favorites/Google.url"))
	_, err = ds.Fs.Create("new.txt")
	assert.Error(t, err)
}
