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
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/extract"
	"github.com/forensicanalysis/recentactivity/pasco"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// PascoToolID identifies the index.dat parser.
const PascoToolID = "pasco2"

// History runs pasco2 on every index.dat file and parses its output.
type History struct {
	env *extract.Env
	// fs holds staged inputs and tool output; pasco2 reads from disk.
	fs afero.Fs
}

func (h *History) Name() string { return "History" }

func (h *History) Configure(env *extract.Env) error {
	h.env = env
	if h.fs == nil {
		h.fs = afero.NewOsFs()
	}
	return nil
}

func (h *History) Process(ds *datasource.DataSource, cancel toolrunner.CancelCheck) extract.Result {
	result := extract.NewResult(h.Name())

	binary, err := h.env.Tools.Locate(PascoToolID)
	if err != nil {
		result.Fail(h.env.Msg(extract.MsgToolNotFound, result.Name, PascoToolID, err))
		return *result
	}

	files := locate(h.env, ds, result, "index.dat", "")
	if len(files) == 0 {
		return result.Done()
	}

	if err := h.fs.MkdirAll(h.env.Config.TempDir, 0750); err != nil {
		result.Fail(h.env.Msg(extract.MsgTempDirFailed, result.Name, err))
		return *result
	}
	tempDir, err := afero.TempDir(h.fs, h.env.Config.TempDir, "recentactivity-history-")
	if err != nil {
		result.Fail(h.env.Msg(extract.MsgTempDirFailed, result.Name, err))
		return *result
	}
	defer h.fs.RemoveAll(tempDir) // nolint:errcheck

	runner := &toolrunner.Runner{Binary: binary, Args: h.env.Config.ToolArgs, Logger: h.env.Logger}
	emitter := extract.NewEmitter(h.env, result)

	for _, file := range files {
		if cancel() {
			result.Cancel()
			break
		}
		if err := h.processFile(ds, file, tempDir, runner, emitter, result, cancel); err != nil {
			if errors.Is(err, toolrunner.ErrCancelled) {
				result.Cancel()
				break
			}
			var ioErr *toolrunner.IOError
			if errors.As(err, &ioErr) && ioErr.Op == "launch" {
				result.Fail(h.env.Msg(extract.MsgToolFailed, result.Name, PascoToolID, file.Name, err))
				break
			}
			result.AddError(err.Error())
		}
	}

	return result.Done()
}

// processFile stages one index.dat, runs pasco2 on it and posts the records
// of its output.
func (h *History) processFile(
	ds *datasource.DataSource, file *datamodel.FileHandle, tempDir string,
	runner *toolrunner.Runner, emitter *extract.Emitter, result *extract.Result, cancel toolrunner.CancelCheck,
) error {
	staged := filepath.Join(tempDir, fmt.Sprintf("index%d.dat", file.ID))
	if err := extract.Stage(h.env, ds, file, h.fs, staged, cancel); err != nil {
		if errors.Is(err, toolrunner.ErrCancelled) {
			return err
		}
		return errors.New(h.env.Msg(extract.MsgStageFailed, result.Name, file.Name, err))
	}

	output := filepath.Join(tempDir, fmt.Sprintf("pasco2Result.%d.txt", file.ID))
	status, err := runner.Run(staged, output, output+".err", cancel)
	if err != nil {
		var ioErr *toolrunner.IOError
		if errors.As(err, &ioErr) && ioErr.Op == "launch" {
			return err
		}
		if errors.Is(err, toolrunner.ErrCancelled) {
			return err
		}
		return errors.New(h.env.Msg(extract.MsgToolFailed, result.Name, PascoToolID, file.Name, err))
	}
	if status.ExitCode != 0 {
		h.env.Log().Printf("%s: %s exited with %d on %s, parsing output anyway", result.Name, PascoToolID, status.ExitCode, file.Name)
	}

	scanner, err := pasco.Open(h.fs, output)
	if err != nil {
		return errors.New(h.env.Msg(extract.MsgParseFailed, result.Name, file.Name, err))
	}
	scanner.Name = file.Name
	scanner.DateFormat = h.env.Config.DateFormat
	scanner.Logger = h.env.Logger

	for scanner.Next() {
		emitter.Emit(scanner.Record(), file)
	}
	if err := scanner.Err(); err != nil {
		result.AddError(h.env.Msg(extract.MsgParseFailed, result.Name, file.Name, err))
	}
	if err := scanner.Close(); err != nil {
		h.env.Log().Print(err)
	}
	emitter.Flush()

	if err := h.fs.Remove(staged); err != nil {
		h.env.Log().Printf("could not remove %s: %s", staged, err)
	}
	return nil
}
