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

// Package recentactivity extracts the recent activity of Internet Explorer
// from forensic data sources and correlates stored messages into threads.
//
// # Pipeline
//
// A data source is a directory or a SQLite archive. Every extraction routine
// locates candidate files, optionally runs an external parser on a staged
// copy, turns the parsed records into artifacts and posts them in batches to
// an evidence store:
//
//	datasource.Locator -> toolrunner.Runner -> pasco.Scanner -> extract.Emitter -> blackboard.Store
//
// The routines of a data source run one after another (extract.Pipeline),
// data sources are processed in parallel (extract.RunAll). Failures are
// collected per routine and never abort the other routines.
//
// # Evidence store
//
// The blackboard is a SQLite database. Artifacts are JSON elements in a full
// text index, each referencing the STIX file element of its source file:
//
//	{"id": "web_history--…", "type": "web_history", "source": "file--…",
//	 "attributes": [{"type": "url", "value": "http://example.com"}, …]}
//
// # Correlation
//
// correlate.GroupBy reads back messages, email messages and call logs and
// selects the earliest message of every thread.
package recentactivity
