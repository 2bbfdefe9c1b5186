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

// Package datasource provides access to the files of the analysed image.
// A data source is either an extracted directory or a SQLite archive.
package datasource

import (
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/forensicanalysis/fsdoublestar"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

// ErrStoreAccess is returned if the files of a data source cannot be listed.
var ErrStoreAccess = errors.New("data source not accessible")

// DataSource is a named, read only file system.
type DataSource struct {
	Name string
	Fs   afero.Fs

	archive *Archive
}

// Open opens a directory or a SQLite archive as data source.
func Open(url string) (*DataSource, error) {
	info, err := os.Stat(url)
	if err != nil {
		return nil, errors.Wrap(ErrStoreAccess, err.Error())
	}

	if info.IsDir() {
		return &DataSource{
			Name: path.Base(url),
			Fs:   afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), url)),
		}, nil
	}

	archive, err := OpenArchive(url)
	if err != nil {
		return nil, errors.Wrap(ErrStoreAccess, err.Error())
	}
	return &DataSource{Name: path.Base(url), Fs: archive, archive: archive}, nil
}

// Close releases an opened archive.
func (ds *DataSource) Close() error {
	if ds.archive != nil {
		return ds.archive.Close()
	}
	return nil
}

// A Locator finds files in data sources. Every file gets an id on first
// sight that stays the same for the lifetime of the Locator.
type Locator struct {
	mu     sync.Mutex
	ids    map[string]int64
	nextID int64
}

// NewLocator creates a Locator.
func NewLocator() *Locator {
	return &Locator{ids: map[string]int64{}}
}

// FindFiles returns all files whose name matches namePattern and whose parent
// directory contains pathPattern. Both patterns are case insensitive. In the
// name pattern % matches any number of characters and _ a single character.
func (l *Locator) FindFiles(ds *DataSource, namePattern, pathPattern string) ([]*datamodel.FileHandle, error) {
	names, err := fsdoublestar.Glob(afero.NewIOFS(ds.Fs), "**64/"+globPattern(namePattern))
	if err != nil {
		return nil, errors.Wrapf(ErrStoreAccess, "%s: %s", ds.Name, err)
	}
	sort.Strings(names)

	parent := strings.ToLower(strings.Trim(pathPattern, "%"))

	var handles []*datamodel.FileHandle
	for _, name := range names {
		if parent != "" && !strings.Contains(strings.ToLower(path.Dir(name)), parent) {
			continue
		}

		info, err := ds.Fs.Stat(name)
		if err != nil {
			return nil, errors.Wrapf(ErrStoreAccess, "%s: %s", ds.Name, err)
		}
		if info.IsDir() {
			continue
		}

		handles = append(handles, &datamodel.FileHandle{
			ID:     l.id(ds.Name, name),
			Name:   info.Name(),
			Path:   name,
			Size:   info.Size(),
			Crtime: info.ModTime(),
			Atime:  info.ModTime(),
			Mtime:  info.ModTime(),
		})
	}
	return handles, nil
}

// Open opens the content of a located file.
func (l *Locator) Open(ds *DataSource, handle *datamodel.FileHandle) (afero.File, error) {
	return ds.Fs.Open(handle.Path)
}

func (l *Locator) id(dataSource, name string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := dataSource + "\x00" + name
	if id, ok := l.ids[key]; ok {
		return id
	}
	l.nextID++
	l.ids[key] = l.nextID
	return l.nextID
}

// globPattern converts a like pattern into a case insensitive glob.
func globPattern(like string) string {
	var b strings.Builder
	for _, r := range like {
		switch {
		case r == '%':
			b.WriteRune('*')
		case r == '_':
			b.WriteRune('?')
		case strings.ContainsRune("*?[]{}\\", r):
			b.WriteRune('\\')
			b.WriteRune(r)
		case strings.ToLower(string(r)) != strings.ToUpper(string(r)):
			b.WriteString("[" + strings.ToLower(string(r)) + strings.ToUpper(string(r)) + "]")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
