package fat16

import (
	"io"
	"os"
	"time"

	"github.com/aligator/fat16/checkpoint"
)

// rootDir is a directory opened through Fs. Without entry it is the root
// directory, otherwise a subdirectory which is always listed as empty as
// only the root directory can be read.
type rootDir struct {
	dir   *Dir
	entry *DirEntry

	// entries is loaded by the first Readdir call.
	entries []os.FileInfo
	loaded  bool
	offset  int
}

func (d *rootDir) load() error {
	if d.loaded {
		return nil
	}
	if d.dir == nil {
		d.loaded = true
		return nil
	}

	entries, err := d.dir.ReadAll()
	if err != nil {
		return checkpoint.From(err)
	}

	d.entries = make([]os.FileInfo, len(entries))
	for i, e := range entries {
		d.entries[i] = e.Info()
	}
	d.loaded = true
	return nil
}

// Readdir behaves like os.File.Readdir: with count > 0 at most count entries
// are returned and io.EOF at the end of the directory, otherwise all
// remaining entries.
func (d *rootDir) Readdir(count int) ([]os.FileInfo, error) {
	if err := d.load(); err != nil {
		return nil, err
	}

	rest := d.entries[d.offset:]
	if count <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}

	if len(rest) == 0 {
		return nil, io.EOF
	}
	if count > len(rest) {
		count = len(rest)
	}
	d.offset += count
	return rest[:count], nil
}

func (d *rootDir) Readdirnames(n int) ([]string, error) {
	infos, err := d.Readdir(n)
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, err
}

func (d *rootDir) Close() error {
	if d.dir == nil {
		return nil
	}
	return d.dir.Close()
}

func (d *rootDir) Name() string {
	if d.entry != nil {
		return d.entry.Name
	}
	return "/"
}

func (d *rootDir) Stat() (os.FileInfo, error) {
	if d.entry != nil {
		return d.entry.Info(), nil
	}
	return rootInfo{}, nil
}

func (d *rootDir) Read(p []byte) (int, error) {
	return 0, checkpoint.From(ErrIsADirectory)
}

func (d *rootDir) ReadAt(p []byte, off int64) (int, error) {
	return 0, checkpoint.From(ErrIsADirectory)
}

func (d *rootDir) Seek(offset int64, whence int) (int64, error) {
	return 0, checkpoint.From(ErrIsADirectory)
}

func (d *rootDir) Write(p []byte) (int, error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (d *rootDir) WriteAt(p []byte, off int64) (int, error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (d *rootDir) WriteString(s string) (int, error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (d *rootDir) Sync() error {
	return checkpoint.From(ErrReadOnly)
}

func (d *rootDir) Truncate(size int64) error {
	return checkpoint.From(ErrReadOnly)
}

// rootInfo describes the root directory, which has no entry of its own.
type rootInfo struct{}

func (rootInfo) Name() string       { return "/" }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() os.FileMode  { return os.ModeDir | 0555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() interface{}   { return nil }
