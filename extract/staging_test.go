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
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/recentactivity/datamodel"
	"github.com/forensicanalysis/recentactivity/datasource"
	"github.com/forensicanalysis/recentactivity/toolrunner"
)

func TestStage(t *testing.T) {
	content := bytes.Repeat([]byte("Client UrlCache MMF Ver 5.2"), 100000)

	image := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(image, "Users/alice/index.dat", content, 0644))
	ds := &datasource.DataSource{Name: "image", Fs: image}
	handle := &datamodel.FileHandle{ID: 1, Name: "index.dat", Path: "Users/alice/index.dat"}

	t.Run("copy", func(t *testing.T) {
		tmp := afero.NewMemMapFs()
		require.NoError(t, Stage(testEnv(&memoryBlackboard{}), ds, handle, tmp, "/tmp/index1.dat", nil))

		staged, err := afero.ReadFile(tmp, "/tmp/index1.dat")
		require.NoError(t, err)
		assert.Equal(t, content, staged)
	})

	t.Run("cancel between chunks", func(t *testing.T) {
		tmp := afero.NewMemMapFs()
		calls := 0
		err := Stage(testEnv(&memoryBlackboard{}), ds, handle, tmp, "/tmp/index1.dat", func() bool {
			calls++
			return calls > 1
		})
		assert.True(t, errors.Is(err, toolrunner.ErrCancelled))

		exists, err := afero.Exists(tmp, "/tmp/index1.dat")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing source", func(t *testing.T) {
		err := Stage(testEnv(&memoryBlackboard{}), ds, &datamodel.FileHandle{ID: 2, Name: "index.dat", Path: "Users/bob/index.dat"}, afero.NewMemMapFs(), "/tmp/index2.dat", nil)

		var ioErr *toolrunner.IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "open", ioErr.Op)
	})
}
