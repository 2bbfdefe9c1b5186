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
	"strings"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/extract"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// Bookmarks extracts the url files of the Favorites folders.
type Bookmarks struct {
	env *extract.Env
}

func (b *Bookmarks) Name() string { return "Bookmarks" }

func (b *Bookmarks) Configure(env *extract.Env) error {
	b.env = env
	return nil
}

func (b *Bookmarks) Process(ds *datasource.DataSource, cancel toolrunner.CancelCheck) extract.Result {
	result := extract.NewResult(b.Name())
	files := locate(b.env, ds, result, "%.url", "Favorites")
	if len(files) == 0 {
		return result.Done()
	}

	emitter := extract.NewEmitter(b.env, result)
	for _, file := range files {
		if cancel() {
			result.Cancel()
			break
		}
		if file.Size == 0 {
			continue
		}

		url, err := b.url(ds, file)
		if err != nil {
			result.AddError(b.env.Msg(extract.MsgReadFailed, result.Name, file.Name, err))
			continue
		}

		emitter.Primary(datamodel.KindWebBookmark, file, url, "",
			emitter.String(datamodel.AttrURL, url),
			emitter.String(datamodel.AttrTitle, file.Name),
			datamodel.NewTime(datamodel.AttrDateTimeCreated, b.env.Config.ModuleName, file.Crtime),
			emitter.String(datamodel.AttrProgName, extract.ProgName),
		)
	}
	emitter.Flush()

	return result.Done()
}

// url returns the value of the first line starting with URL, e.g.
// URL=http://www.example.com/.
func (b *Bookmarks) url(ds *datasource.DataSource, file *datamodel.FileHandle) (string, error) {
	lines, err := readLines(b.env, ds, file, -1)
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "URL") {
			return strings.TrimSpace(line[strings.Index(line, "=")+1:]), nil
		}
	}
	return "", nil
}
