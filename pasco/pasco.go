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

// Package pasco reads the tab delimited output of the pasco2 index.dat
// parser. Each record line starts with the URL marker:
//
//	URL	Visited: alice@http://example.com	2014-09-11T21:50:18.301Z	2014-09-11T21:50:18.301Z
package pasco

import (
	"bufio"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

// Marker starts every record line.
const Marker = "URL"

// MinFields is the number of tab separated fields a record line needs.
const MinFields = 4

const maxLineLength = 1024 * 1024

var annotation = regexp.MustCompile(":(.*?):")

// Record is one visit parsed from a line.
type Record struct {
	User      string
	URL       string
	Domain    string
	Timestamp int64
}

// Scanner yields the records of one output file in order. It can be used
// only once.
type Scanner struct {
	// Name identifies the parsed file in diagnostics.
	Name       string
	DateFormat string
	Logger     *log.Logger

	file    afero.File
	reader  *bufio.Reader
	record  Record
	line    int
	skipped int
	err     error
}

// Open opens an output file. A missing or empty file yields a Scanner
// without records.
func Open(fs afero.Fs, path string) (*Scanner, error) {
	s := &Scanner{Name: path, DateFormat: datamodel.TimeFormat}

	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if info.Size() == 0 {
		return s, nil
	}

	s.file, err = fs.Open(path)
	if err != nil {
		return nil, err
	}
	s.reader = bufio.NewReaderSize(s.file, maxLineLength)
	return s, nil
}

func (s *Scanner) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

// Next advances to the next record. Lines without the marker are skipped
// silently, short and overlong lines are skipped with a diagnostic.
func (s *Scanner) Next() bool {
	for s.reader != nil {
		raw, tooLong, err := s.readLine()
		if err != nil && err != io.EOF {
			s.err = err
			s.reader = nil
			return false
		}
		if err == io.EOF {
			s.reader = nil
		}

		switch {
		case tooLong:
			s.line++
			s.skipped++
			s.logger().Printf("%s:%d: line longer than %d bytes", s.Name, s.line, maxLineLength)
		case len(raw) > 0:
			s.line++
			line := strings.TrimSuffix(strings.TrimSuffix(string(raw), "\n"), "\r")
			if record, ok := s.parse(line); ok {
				s.record = record
				return true
			}
		}
	}
	return false
}

// readLine returns the next line including its terminator. Lines that do not
// fit into the read buffer are consumed and reported as too long.
func (s *Scanner) readLine() (line []byte, tooLong bool, err error) {
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			tooLong = true
			continue
		}
		if tooLong {
			return nil, true, err
		}
		return chunk, false, err
	}
}

func (s *Scanner) parse(line string) (Record, bool) {
	if !strings.HasPrefix(line, Marker) {
		s.skipped++
		return Record{}, false
	}

	fields := strings.Split(line, "\t")
	if len(fields) < MinFields {
		s.skipped++
		s.logger().Printf("%s:%d: expected %d fields, got %d", s.Name, s.line, MinFields, len(fields))
		return Record{}, false
	}

	user, url := ParseUserURL(fields[1])
	return Record{
		User:      user,
		URL:       url,
		Domain:    Domain(url),
		Timestamp: s.parseTime(fields[3]),
	}, true
}

// Record returns the record read by the last call to Next.
func (s *Scanner) Record() Record {
	return s.record
}

// Skipped returns the number of lines that were not records.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Err returns the first read error.
func (s *Scanner) Err() error {
	return s.err
}

// Close closes the underlying file.
func (s *Scanner) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func (s *Scanner) parseTime(field string) int64 {
	field = strings.TrimSpace(field)
	t, err := time.Parse(s.DateFormat, field)
	if err != nil {
		s.logger().Printf("%s:%d: could not parse time %q: %s", s.Name, s.line, field, err)
		return 0
	}
	return t.Unix()
}

// ParseUserURL splits the visit field into the user name and the url. The
// field is either a plain url or "<annotation> <user>@<url>".
func ParseUserURL(field string) (user, url string) {
	parts := strings.SplitN(field, "@", 2)
	if len(parts) < 2 {
		return "", strings.TrimSpace(field)
	}

	user = strings.ReplaceAll(parts[0], "Visited:", "")
	user = strings.ReplaceAll(user, ":Host:", "")
	user = annotation.ReplaceAllString(user, "")

	url = strings.ReplaceAll(parts[1], "Visited:", "")
	url = strings.ReplaceAll(url, ":Host:", "")
	url = strings.TrimRight(strings.TrimSpace(url), ":")

	return strings.TrimSpace(user), strings.TrimSpace(url)
}
