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

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/recentactivity/blackboard"
	"github.com/forensicanalysis/recentactivity/datamodel"
)

// Artifact is the recentactivity artifact commandline subcommand
func Artifact() *cobra.Command {
	artifactCommand := &cobra.Command{
		Use:   "artifact",
		Short: "Read artifacts from an evidence store",
	}
	artifactCommand.AddCommand(getCommand(), selectCommand(), allCommand(), searchCommand())
	return artifactCommand
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> <store>",
		Short: "Retrieve a single element",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[1])
			if err != nil {
				return err
			}
			defer store.Close()

			element, err := store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", element)
			return nil
		},
	}
}

func selectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select <kind> <store>",
		Short: "Retrieve all artifacts of a kind",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[1])
			if err != nil {
				return err
			}
			defer store.Close()

			artifacts, err := store.Select(datamodel.Kind(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), artifacts)
		},
	}
}

func allCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all <store>",
		Short: "Retrieve all elements, including source files",
		Args:  cobra.ExactArgs(1), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			elements, err := store.All()
			if err != nil {
				return err
			}
			printElements(cmd.OutOrStdout(), elements)
			return nil
		},
	}
}

func searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query> <store>",
		Short: "Full text search",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[1])
			if err != nil {
				return err
			}
			defer store.Close()

			elements, err := store.Search(args[0])
			if err != nil {
				return err
			}
			printElements(cmd.OutOrStdout(), elements)
			return nil
		},
	}
}

func openStore(url string) (*blackboard.Store, error) {
	if err := requireFiles(url); err != nil {
		return nil, err
	}
	return blackboard.Open(url)
}
