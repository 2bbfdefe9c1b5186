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
	"io"

	"github.com/spf13/afero"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

const stageChunkSize = 1024 * 1024

// Stage copies a located file to dst on fs so an external tool can read it. The copy stops with toolrunner.ErrCancelled if
// cancel reports true between two chunks.
func Stage(env *Env, ds *datasource.DataSource, handle *datamodel.FileHandle, fs afero.Fs, dst string, cancel toolrunner.CancelCheck) (err error) {
	if cancel == nil {
		cancel = toolrunner.NotCancelled
	}

	src, err := env.Files.Open(ds, handle)
	if err != nil {
		return &toolrunner.IOError{Op: "open", Path: handle.Path, Err: err}
	}
	defer src.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return &toolrunner.IOError{Op: "create", Path: dst, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &toolrunner.IOError{Op: "close", Path: dst, Err: cerr}
		}
		if err != nil {
			_ = fs.Remove(dst)
		}
	}()

	for {
		if cancel() {
			return toolrunner.ErrCancelled
		}
		_, cerr := io.CopyN(out, src, stageChunkSize)
		if cerr == io.EOF {
			return nil
		}
		if cerr != nil {
			return &toolrunner.IOError{Op: "copy", Path: dst, Err: cerr}
		}
	}
}
