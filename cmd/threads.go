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

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/recentactivity/correlate"
)

// Threads is the recentactivity threads commandline subcommand
func Threads() *cobra.Command {
	return &cobra.Command{
		Use:   "threads <store>",
		Short: "List message threads with their earliest message",
		Args:  requireOneStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			threads, err := correlate.Threads(store)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:gomnd
			fmt.Fprintln(w, "THREAD\tREPRESENTATIVE\tMESSAGES")
			for _, thread := range threads {
				fmt.Fprintf(w, "%s\t%s\t%d\n", thread.Key, thread.Representative.ID, thread.Members)
			}
			return w.Flush()
		},
	}
}
