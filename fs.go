package fat16

import (
	"errors"
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/aligator/fat16/checkpoint"
	"github.com/golang/glog"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Fs exposes the root directory of a Volume as read-only afero.Fs.
// Only the root directory and the files directly inside of it can be
// read, subdirectories are listed and open as empty directories.
type Fs struct {
	vol  *Volume
	disk *Disk
}

var _ afero.Fs = (*Fs)(nil)

// New returns an Fs for an already mounted Volume.
// Closing the Fs does not close the Volume.
func New(vol *Volume) *Fs {
	return &Fs{vol: vol}
}

// OpenImage opens the disk image at path inside of fsys and mounts the
// volume starting at firstSector. The returned Fs owns both, so they are
// released by Fs.Close.
func OpenImage(fsys afero.Fs, path string, firstSector uint32) (*Fs, error) {
	disk, err := OpenDisk(fsys, path)
	if err != nil {
		return nil, err
	}

	vol, err := Mount(disk, firstSector)
	if err != nil {
		return nil, multierr.Append(err, disk.Close())
	}

	return &Fs{vol: vol, disk: disk}, nil
}

// Volume returns the mounted volume.
func (fs *Fs) Volume() *Volume {
	return fs.vol
}

// Close releases the volume and the disk image if the Fs owns them.
func (fs *Fs) Close() error {
	if fs.disk == nil {
		return nil
	}
	err := multierr.Combine(fs.vol.Close(), fs.disk.Close())
	fs.disk = nil
	return err
}

// Label returns the volume label.
func (fs *Fs) Label() string {
	return fs.vol.Label()
}

func (fs *Fs) Name() string {
	return "fat16"
}

// rootName converts name to the name of a root directory entry.
// It returns "" for the root directory itself.
func rootName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if strings.Contains(name, "/") {
		return "", checkpoint.Wrapf(ErrUnsupported, "subdirectories are not supported: %q", name)
	}
	return name, nil
}

// pathError converts err into an *os.PathError so that the helpers of the os
// package, which afero relies on, classify it correctly.
func pathError(op, name string, err error) error {
	if glog.V(2) {
		glog.Infof("%s %q: %v", op, name, err)
	}

	switch {
	case errors.Is(err, ErrNotFound):
		err = syscall.ENOENT
	case errors.Is(err, ErrIsADirectory):
		err = syscall.EISDIR
	case errors.Is(err, ErrReadOnly):
		err = syscall.EROFS
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}

// Open opens the root directory or one of its entries. Subdirectories can
// be opened but are always empty. Like Stat, Open does not see volume labels
// and long filename fragments, Volume.Open reports them as ErrIsADirectory.
func (fs *Fs) Open(name string) (afero.File, error) {
	entryName, err := rootName(name)
	if err != nil {
		return nil, pathError("open", name, err)
	}

	if entryName == "" {
		dir, err := fs.vol.OpenDir(`\`)
		if err != nil {
			return nil, pathError("open", name, err)
		}
		return &rootDir{dir: dir}, nil
	}

	entry, err := fs.lookup(entryName)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	if entry.IsDir() {
		return &rootDir{entry: &entry}, nil
	}

	f, err := fs.vol.Open(entryName)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return f, nil
}

func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_TRUNC) != 0 {
		return nil, pathError("open", name, ErrReadOnly)
	}
	return fs.Open(name)
}

// Stat describes the root directory or one of the entries listed in it.
func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	entryName, err := rootName(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	if entryName == "" {
		return rootInfo{}, nil
	}

	entry, err := fs.lookup(entryName)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return entry.Info(), nil
}

// lookup finds name among the entries listed in the root directory.
func (fs *Fs) lookup(name string) (DirEntry, error) {
	dir, err := fs.vol.OpenDir(`\`)
	if err != nil {
		return DirEntry{}, err
	}
	defer dir.Close()

	entries, err := dir.ReadAll()
	if err != nil {
		return DirEntry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return DirEntry{}, checkpoint.Wrapf(ErrNotFound, "no entry %q in the root directory", name)
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, pathError("create", name, ErrReadOnly)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return pathError("mkdir", name, ErrReadOnly)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return pathError("mkdir", path, ErrReadOnly)
}

func (fs *Fs) Remove(name string) error {
	return pathError("remove", name, ErrReadOnly)
}

func (fs *Fs) RemoveAll(path string) error {
	return pathError("remove", path, ErrReadOnly)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return pathError("rename", oldname, ErrReadOnly)
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return pathError("chmod", name, ErrReadOnly)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return pathError("chown", name, ErrReadOnly)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return pathError("chtimes", name, ErrReadOnly)
}
