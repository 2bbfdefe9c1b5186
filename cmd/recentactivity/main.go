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

// Package main implements the recentactivity command line tool. It extracts
// the bookmarks, cookies and browsing history of Internet Explorer from data
// sources into an evidence store.
//
//	create    Create an evidence store
//	extract   Extract the recent activity of data sources
//	artifact  Read artifacts (get, select, all, search)
//	threads   List message threads
//	validate  Validate an evidence store
//	pack      Create a SQLite archive data source
//	unpack    Extract files from a SQLite archive
//	ls        List the files of a data source
//	config    Print the effective configuration
//
// Environment variables with the RECENTACTIVITY_ prefix, also read from a
// .env file in the working directory, override the config file.
//
// # Usage
//
// Extract a mounted image and a packed directory
//
//	recentactivity pack evidence.sqlar Users
//	recentactivity extract --config recentactivity.yml /mnt/image evidence.sqlar activity.db
//
// Read the results
//
//	recentactivity artifact select web_history activity.db
//	recentactivity artifact search alice activity.db
//	recentactivity threads activity.db
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/forensicanalysis/recentactivity/cmd"
)

func main() {
	_ = godotenv.Load()
	if err := cmd.Root().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
