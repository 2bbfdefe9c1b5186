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

// Package ie extracts the recent activity of Internet Explorer: favorites,
// cookies and the browsing history of index.dat files.
package ie

import (
	"bufio"
	"strings"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/extract"
)

// Extractors returns the Internet Explorer routines in the order they run.
func Extractors() []extract.Extractor {
	return []extract.Extractor{&Bookmarks{}, &Cookies{}, &History{}}
}

// readLines reads the first n lines of a located file. Fewer lines are
// returned if the file is shorter.
func readLines(env *extract.Env, ds *datasource.DataSource, handle *datamodel.FileHandle, n int) ([]string, error) {
	f, err := env.Files.Open(ds, handle)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && (n < 0 || len(lines) < n) {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// locate finds candidate files and records a failed search on result.
func locate(env *extract.Env, ds *datasource.DataSource, result *extract.Result, namePattern, pathPattern string) []*datamodel.FileHandle {
	files, err := env.Files.FindFiles(ds, namePattern, pathPattern)
	if err != nil {
		result.Fail(env.Msg(extract.MsgLocateFailed, result.Name, err))
		return nil
	}
	if len(files) == 0 {
		env.Log().Print(env.Msg(extract.MsgNoFiles, result.Name))
		return nil
	}
	result.FoundData = true
	return files
}
