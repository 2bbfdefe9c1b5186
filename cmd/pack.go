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
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/recentactivity/datasource"
)

// Pack is the recentactivity pack commandline subcommand
func Pack() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <archive> <file>...",
		Short: "Add files to a SQLite archive that can be used as data source",
		Args:  cobra.MinimumNArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			var names []string
			for _, arg := range args[1:] {
				fmt.Fprintln(cmd.OutOrStdout(), "pack", filepath.ToSlash(arg))
				names = append(names, filepath.ToSlash(arg))
			}
			return datasource.Pack(args[0], afero.NewOsFs(), names...)
		},
	}
}

// Unpack is the recentactivity unpack commandline subcommand
func Unpack() *cobra.Command {
	var mode string
	unpackCmd := &cobra.Command{
		Use:   "unpack <archive> <directory>",
		Short: "Extract files from a SQLite archive",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			srcFS, err := datasource.OpenArchive(args[0])
			if err != nil {
				return err
			}
			defer srcFS.Close()

			if err := os.MkdirAll(args[1], 0750); err != nil {
				return err
			}
			destFS := afero.NewBasePathFs(afero.NewOsFs(), args[1])

			return afero.Walk(srcFS, "/", func(srcPath string, info os.FileInfo, err error) error {
				if err != nil || info == nil || info.IsDir() {
					return err
				}

				fullPath := filepath.ToSlash(srcPath)
				dest := destinationPath(fullPath, mode)
				fmt.Fprintf(cmd.OutOrStdout(), "unpack '%s' to '%s'\n", fullPath, dest)
				return copyFile(srcFS, destFS, fullPath, dest)
			})
		},
	}

	usage := `define the export filename and folder structure. can be one of:
folder (e.g. 'Users/user/AppData/Local/Microsoft/Windows/History/History.IE5/index.dat')
compact (e.g. 'User_user_AppD_Loca_Micr_Windows_History_History.IE5_index.dat')
basename (e.g. 'index.dat')
`
	unpackCmd.Flags().StringVar(&mode, "mode", "folder", usage)
	return unpackCmd
}

// Ls is the recentactivity ls commandline subcommand
func Ls() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <datasource>",
		Short: "List the files of a directory or SQLite archive",
		Args:  cobra.ExactArgs(1), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datasource.Open(args[0])
			if err != nil {
				return err
			}
			defer ds.Close()

			return afero.Walk(ds.Fs, "/", func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					fmt.Fprintln(cmd.OutOrStdout(), filepath.ToSlash(p))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", filepath.ToSlash(p), humanize.Bytes(uint64(info.Size())))
				return nil
			})
		},
	}
}

func copyFile(srcFS, destFS afero.Fs, srcPath, destPath string) error {
	src, err := srcFS.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := destFS.MkdirAll(path.Dir(destPath), 0750); err != nil {
		return err
	}
	dest, err := destFS.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}

func destinationPath(fullPath string, mode string) string {
	switch mode {
	case "basename":
		return path.Base(fullPath)
	case "compact":
		return normalizeFilePath(fullPath)
	default:
		return strings.TrimLeft(fullPath, "/")
	}
}

func first(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[:n]
}

func last(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[len(s)-n:]
}

func splitExt(filePath string) (nameOnly, ext string) {
	ext = path.Ext(filePath)
	nameOnly = filePath[:len(filePath)-len(ext)]
	return nameOnly, ext
}

// normalizeFilePath flattens a path into a file name of at most 64
// characters. Directory names are shortened first, then the file name.
func normalizeFilePath(filePath string) string {
	maxLength := 64
	maxSegmentLength := 4
	filePath = strings.TrimLeft(filePath, "/")
	pathSegments := strings.Split(filePath, "/")
	normalizedFilePath := strings.Join(pathSegments, "_")

	for i := 0; i < len(pathSegments)-1 && len(normalizedFilePath) > maxLength; i++ {
		pathSegments[i] = first(pathSegments[i], maxSegmentLength)
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	if len(normalizedFilePath) > maxLength {
		nameOnly, ext := splitExt(pathSegments[len(pathSegments)-1])
		pathSegments[len(pathSegments)-1] = first(nameOnly, maxSegmentLength) + ext
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	return last(normalizedFilePath, maxLength)
}
