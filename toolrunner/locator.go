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

package toolrunner

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Locator resolves tool ids to binaries. Configured paths take precedence
// over the PATH environment variable.
type Locator struct {
	Tools map[string]string
}

// Locate returns the path of the binary for toolID.
func (l *Locator) Locate(toolID string) (string, error) {
	if p, ok := l.Tools[toolID]; ok && p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return "", errors.Wrapf(ErrToolNotFound, "%s: %s", toolID, err)
		}
		if info.IsDir() {
			return "", errors.Wrapf(ErrToolNotFound, "%s: %s is a directory", toolID, p)
		}
		return p, nil
	}

	p, err := exec.LookPath(toolID)
	if err != nil {
		return "", errors.Wrapf(ErrToolNotFound, "%s: %s", toolID, err)
	}
	return p, nil
}
