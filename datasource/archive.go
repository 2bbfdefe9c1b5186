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

package datasource

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrNotImplemented is returned for random access on archived files.
var ErrNotImplemented = errors.New("not implemented")

const sqlarTable = `CREATE TABLE IF NOT EXISTS sqlar(
  name TEXT PRIMARY KEY,  -- name of the file
  mode INT,               -- access permissions
  mtime INT,              -- last modification time
  sz INT,                 -- original file size
  data BLOB               -- compressed content
);`

// Archive is a read only afero.Fs over the sqlar table of a SQLite archive.
// File contents are stored deflate compressed, or uncompressed if that is
// not smaller.
type Archive struct {
	cursor *sqlite.Conn
}

// OpenArchive opens an existing archive.
func OpenArchive(url string) (*Archive, error) {
	if _, err := os.Stat(url); err != nil {
		return nil, err
	}
	cursor, err := sqlite.OpenConn(url, sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_URI|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, err
	}
	return &Archive{cursor: cursor}, nil
}

func (a *Archive) Name() string {
	return "SQLiteArchive"
}

func (a *Archive) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

func (a *Archive) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	if flag&(os.O_RDWR|os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EPERM}
	}
	name = normalizeFilename(name)

	info, id, err := a.stat(name)
	if err != nil {
		return nil, err
	}

	f := &archiveFile{path: name, info: info}
	if info.IsDir() {
		f.children, err = a.children(name)
		return f, err
	}

	f.blob, err = a.cursor.OpenBlob("", "sqlar", "data", id, false)
	if err != nil {
		return nil, err
	}
	if f.blob.Size() == info.Size() {
		f.reader = f.blob
	} else {
		f.reader = flate.NewReader(f.blob)
	}
	return f, nil
}

func (a *Archive) Stat(name string) (os.FileInfo, error) {
	info, _, err := a.stat(normalizeFilename(name))
	return info, err
}

func (a *Archive) stat(name string) (info *fileInfo, id int64, err error) {
	query := "SELECT rowid, name, mode, mtime, sz, data IS NULL FROM sqlar WHERE name = ?"
	err = sqlitex.Exec(a.cursor, query, func(stmt *sqlite.Stmt) error {
		id = stmt.ColumnInt64(0)
		info = rowInfo(stmt)
		return nil
	}, name)
	if err != nil {
		return nil, 0, err
	}
	if info == nil {
		if name == "/" {
			return &fileInfo{name: "/", mode: os.ModeDir | 0555, dir: true}, 0, nil
		}
		return nil, 0, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return info, id, nil
}

func (a *Archive) children(name string) ([]os.FileInfo, error) {
	prefix := name + "/"
	if name == "/" {
		prefix = "/"
	}

	var children []os.FileInfo
	query := "SELECT rowid, name, mode, mtime, sz, data IS NULL FROM sqlar WHERE substr(name, 1, ?) = ? ORDER BY name"
	err := sqlitex.Exec(a.cursor, query, func(stmt *sqlite.Stmt) error {
		childName := stmt.ColumnText(1)
		if childName == name || strings.Contains(strings.Trim(childName[len(prefix):], "/"), "/") {
			return nil
		}
		children = append(children, rowInfo(stmt))
		return nil
	}, len(prefix), prefix)
	return children, err
}

func rowInfo(stmt *sqlite.Stmt) *fileInfo {
	size := stmt.ColumnInt64(4)
	info := &fileInfo{
		name:  path.Base(stmt.ColumnText(1)),
		sz:    size,
		mode:  os.FileMode(stmt.ColumnInt64(2)),
		mtime: time.Unix(stmt.ColumnInt64(3), 0),
		dir:   size == 0 && stmt.ColumnInt(5) == 1,
	}
	if info.dir {
		info.mode |= os.ModeDir
	}
	return info
}

func (a *Archive) Close() error {
	return a.cursor.Close()
}

func (a *Archive) Create(name string) (afero.File, error) {
	return nil, &os.PathError{Op: "create", Path: name, Err: syscall.EPERM}
}

func (a *Archive) Mkdir(name string, _ os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: syscall.EPERM}
}

func (a *Archive) MkdirAll(p string, _ os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: p, Err: syscall.EPERM}
}

func (a *Archive) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: syscall.EPERM}
}

func (a *Archive) RemoveAll(p string) error {
	return &os.PathError{Op: "remove", Path: p, Err: syscall.EPERM}
}

func (a *Archive) Rename(oldname, _ string) error {
	return &os.PathError{Op: "rename", Path: oldname, Err: syscall.EPERM}
}

func (a *Archive) Chmod(name string, _ os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: syscall.EPERM}
}

func (a *Archive) Chown(name string, _, _ int) error {
	return &os.PathError{Op: "chown", Path: name, Err: syscall.EPERM}
}

func (a *Archive) Chtimes(name string, _, _ time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: syscall.EPERM}
}

type archiveFile struct {
	path     string
	info     os.FileInfo
	children []os.FileInfo
	blob     *sqlite.Blob
	reader   io.Reader
}

func (f *archiveFile) Name() string { return path.Base(f.path) }

func (f *archiveFile) Read(p []byte) (int, error) {
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *archiveFile) ReadAt([]byte, int64) (int, error) { return 0, ErrNotImplemented }

func (f *archiveFile) Seek(int64, int) (int64, error) { return 0, ErrNotImplemented }

func (f *archiveFile) Readdir(count int) ([]os.FileInfo, error) {
	n := len(f.children)
	if count > 0 && count < n {
		n = count
	}
	return f.children[:n], nil
}

func (f *archiveFile) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, err
}

func (f *archiveFile) Stat() (os.FileInfo, error) { return f.info, nil }

func (f *archiveFile) Write([]byte) (int, error) { return 0, syscall.EPERM }

func (f *archiveFile) WriteAt([]byte, int64) (int, error) { return 0, syscall.EPERM }

func (f *archiveFile) WriteString(string) (int, error) { return 0, syscall.EPERM }

func (f *archiveFile) Truncate(int64) error { return syscall.EPERM }

func (f *archiveFile) Sync() error { return nil }

func (f *archiveFile) Close() error {
	if closer, ok := f.reader.(io.Closer); ok && f.reader != io.Reader(f.blob) {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	if f.blob != nil {
		return f.blob.Close()
	}
	return nil
}

type fileInfo struct {
	sz    int64
	mtime time.Time
	mode  os.FileMode
	dir   bool
	name  string
}

func (i *fileInfo) Name() string       { return i.name }
func (i *fileInfo) Size() int64        { return i.sz }
func (i *fileInfo) Mode() os.FileMode  { return i.mode }
func (i *fileInfo) ModTime() time.Time { return i.mtime }
func (i *fileInfo) IsDir() bool        { return i.dir }
func (i *fileInfo) Sys() interface{}   { return nil }

/* ################################
#   Pack
################################ */

// Pack adds files and directories from fs to a new or existing archive.
// Directories are added recursively.
func Pack(url string, fs afero.Fs, names ...string) (err error) {
	conn, err := sqlite.OpenConn(url, 0)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := sqlitex.ExecTransient(conn, sqlarTable, nil); err != nil {
		return err
	}

	defer sqlitex.Save(conn)(&err)

	for _, name := range names {
		err = afero.Walk(fs, name, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			return addEntry(conn, fs, p, info)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func addEntry(conn *sqlite.Conn, fs afero.Fs, p string, info os.FileInfo) error {
	name := normalizeFilename(p)
	for dir := path.Dir(name); dir != "/"; dir = path.Dir(dir) {
		err := sqlitex.Exec(conn, "INSERT OR IGNORE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, 0, NULL)",
			nil, dir, int64(os.ModeDir|0755), info.ModTime().Unix())
		if err != nil {
			return err
		}
	}

	if info.IsDir() {
		return sqlitex.Exec(conn, "INSERT OR REPLACE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, 0, NULL)",
			nil, name, int64(info.Mode()), info.ModTime().Unix())
	}

	content, err := afero.ReadFile(fs, p)
	if err != nil {
		return err
	}

	data := content
	buf := &bytes.Buffer{}
	w, err := flate.NewWriter(buf, flate.DefaultCompression)
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if buf.Len() < len(content) {
		data = buf.Bytes()
	}
	if len(data) == 0 {
		// a bound empty blob would be stored as NULL, which marks directories
		return sqlitex.Exec(conn, "INSERT OR REPLACE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, 0, zeroblob(0))",
			nil, name, int64(info.Mode().Perm()), info.ModTime().Unix())
	}

	return sqlitex.Exec(conn, "INSERT OR REPLACE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, ?, ?)",
		nil, name, int64(info.Mode().Perm()), info.ModTime().Unix(), int64(len(content)), data)
}

func normalizeFilename(name string) string {
	if name == "." || name == "" || name == "/" {
		return "/"
	}
	name = filepath.ToSlash(name)
	name = "/" + strings.Trim(name, "/")
	return name
}
