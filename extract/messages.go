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
	"fmt"
)

// Messages formats user facing messages by key.
type Messages interface {
	Format(key string, args ...interface{}) string
}

// Message keys.
const (
	MsgNoFiles        = "no_files"
	MsgLocateFailed   = "locate_failed"
	MsgToolNotFound   = "tool_not_found"
	MsgToolFailed     = "tool_failed"
	MsgReadFailed     = "read_failed"
	MsgStageFailed    = "stage_failed"
	MsgParseFailed    = "parse_failed"
	MsgArtifactFailed = "artifact_failed"
	MsgPostFailed     = "post_failed"
	MsgTempDirFailed  = "temp_dir_failed"
	MsgConfigure      = "configure_failed"
)

// MessageTable formats messages with fmt templates.
type MessageTable map[string]string

// DefaultMessages are the English messages.
var DefaultMessages = MessageTable{
	MsgNoFiles:        "%s: no files found",
	MsgLocateFailed:   "%s: could not search for files: %s",
	MsgToolNotFound:   "%s: unable to locate %s: %s",
	MsgToolFailed:     "%s: could not run %s on %s: %s",
	MsgReadFailed:     "%s: could not read %s: %s",
	MsgStageFailed:    "%s: could not copy %s to the temporary directory: %s",
	MsgParseFailed:    "%s: error parsing %s: %s",
	MsgArtifactFailed: "%s: could not create artifact for %s: %s",
	MsgPostFailed:     "%s: could not post %d %s artifacts of %s: %s",
	MsgTempDirFailed:  "%s: could not create temporary directory: %s",
	MsgConfigure:      "%s: could not be configured: %s",
}

// Format formats the message key. Unknown keys are printed with their
// arguments.
func (m MessageTable) Format(key string, args ...interface{}) string {
	if template, ok := m[key]; ok {
		return fmt.Sprintf(template, args...)
	}
	return fmt.Sprintf("%s: %v", key, args)
}
