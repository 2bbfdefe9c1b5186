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

// Package cmd provides the subcommands of the recentactivity command line
// tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/recentactivity/blackboard"
)

// Root returns the recentactivity command with all subcommands.
func Root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recentactivity",
		Short:         "Extract and correlate the recent activity of Internet Explorer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(Create(), Extract(), Artifact(), Threads(), Validate(),
		Pack(), Unpack(), Ls(), Config())
	return rootCmd
}

// Create is the recentactivity create commandline subcommand
func Create() *cobra.Command {
	return &cobra.Command{
		Use:   "create <store>",
		Short: "Create an empty evidence store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := blackboard.New(args[0])
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}

// Validate is the recentactivity validate commandline subcommand
func Validate() *cobra.Command {
	var noFail bool
	validateCommand := &cobra.Command{
		Use:   "validate <store>",
		Short: "Validate all artifacts",
		Args:  requireOneStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := blackboard.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			flaws, err := store.Validate()
			if err != nil {
				return err
			}
			if len(flaws) > 0 {
				for i, v := range flaws {
					flaws[i] = strings.Replace(v, "\"", "\\\"", -1)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[\"%s\"]\n", strings.Join(flaws, "\", \""))
				if noFail {
					return nil
				}
				return errors.Errorf("%d validation errors", len(flaws))
			}
			return nil
		},
	}
	validateCommand.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCommand
}

func requireOneStore(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires exactly one store")
	}
	return requireFiles(args...)
}

func requireFiles(names ...string) error {
	for _, name := range names {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return errors.Wrap(os.ErrNotExist, name)
		}
	}
	return nil
}

func printElements(w io.Writer, elements []blackboard.JSONElement) {
	fmt.Fprint(w, "[")
	for i, element := range elements {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprint(w, string(element))
	}
	fmt.Fprint(w, "]")
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", b)
	return nil
}
