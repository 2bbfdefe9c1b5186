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
	"github.com/pkg/errors"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/extract"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// Cookies extracts the text cookie files. The first three lines of a cookie
// file hold its name, value and url.
type Cookies struct {
	env *extract.Env
}

func (c *Cookies) Name() string { return "Cookies" }

func (c *Cookies) Configure(env *extract.Env) error {
	c.env = env
	return nil
}

func (c *Cookies) Process(ds *datasource.DataSource, cancel toolrunner.CancelCheck) extract.Result {
	result := extract.NewResult(c.Name())
	files := locate(c.env, ds, result, "%.txt", "Cookies")
	if len(files) == 0 {
		return result.Done()
	}

	emitter := extract.NewEmitter(c.env, result)
	for _, file := range files {
		if cancel() {
			result.Cancel()
			break
		}
		if file.Size == 0 {
			continue
		}

		lines, err := readLines(c.env, ds, file, 3)
		if err == nil && len(lines) < 3 {
			err = errors.Errorf("expected 3 lines, got %d", len(lines))
		}
		if err != nil {
			result.AddError(c.env.Msg(extract.MsgReadFailed, result.Name, file.Name, err))
			continue
		}
		name, value, url := lines[0], lines[1], lines[2]

		emitter.Primary(datamodel.KindWebCookie, file, url, "",
			emitter.String(datamodel.AttrURL, url),
			datamodel.NewTime(datamodel.AttrDateTime, c.env.Config.ModuleName, file.Crtime),
			emitter.String(datamodel.AttrName, name),
			emitter.String(datamodel.AttrValue, value),
			emitter.String(datamodel.AttrProgName, extract.ProgName),
		)
	}
	emitter.Flush()

	return result.Done()
}
