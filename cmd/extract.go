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
	"log"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/recentactivity/blackboard"
	"github.com/forensicanalysis/recentactivity/config"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/extract"
	"github.com/forensicanalysis/recentactivity/extract/ie"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

// Extract is the recentactivity extract commandline subcommand
func Extract() *cobra.Command {
	var configFile string
	var workers int
	extractCommand := &cobra.Command{
		Use:   "extract <datasource>... <store>",
		Short: "Extract the recent activity of data sources into a store",
		Args:  cobra.MinimumNArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			storeName := args[len(args)-1]
			store, err := createOrOpen(storeName)
			if err != nil {
				return err
			}
			defer store.Close()

			var sources []*datasource.DataSource
			for _, name := range args[:len(args)-1] {
				ds, err := datasource.Open(name)
				if err != nil {
					return err
				}
				defer ds.Close()
				sources = append(sources, ds)
			}

			env := &extract.Env{
				Blackboard: store,
				Files:      datasource.NewLocator(),
				Tools:      &toolrunner.Locator{Tools: cfg.Tools},
				Config:     cfg,
				Logger:     log.New(cmd.ErrOrStderr(), "", log.LstdFlags),
			}

			cancel, stop := interrupt()
			defer stop()

			for _, summary := range extract.RunAll(env, sources, workers, cancel, ie.Extractors) {
				fmt.Fprintln(cmd.OutOrStdout(), summary)
			}
			if cancel() {
				return errors.New("extraction cancelled")
			}
			return nil
		},
	}
	extractCommand.Flags().StringVar(&configFile, "config", "", "config file")
	extractCommand.Flags().IntVar(&workers, "workers", 1, "number of data sources processed in parallel")
	return extractCommand
}

func createOrOpen(url string) (*blackboard.Store, error) {
	if _, err := os.Stat(url); os.IsNotExist(err) {
		return blackboard.New(url)
	}
	return blackboard.Open(url)
}

// interrupt returns a cancellation check that is set on the first interrupt
// signal.
func interrupt() (toolrunner.CancelCheck, func()) {
	var cancelled int32
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signals, os.Interrupt)
	go func() {
		select {
		case <-signals:
			atomic.StoreInt32(&cancelled, 1)
		case <-done:
		}
	}()
	return func() bool { return atomic.LoadInt32(&cancelled) == 1 }, func() {
		signal.Stop(signals)
		close(done)
	}
}
