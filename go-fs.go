package fat16

import (
	"io/fs"
)

// GoFs wraps Fs to be compatible with io/fs.
type GoFs struct {
	*Fs
}

// NewGoFS returns the volume as fs.FS.
func NewGoFS(vol *Volume) GoFs {
	return GoFs{New(vol)}
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	switch f := file.(type) {
	case *rootDir:
		return goDir{f}, nil
	case *File:
		return f, nil
	}

	file.Close()
	return nil, &fs.PathError{Op: "open", Path: name, Err: ErrUnsupported}
}

func (g GoFs) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	return g.Fs.Stat(name)
}

// goDir adds fs.ReadDirFile to the root directory.
type goDir struct {
	*rootDir
}

func (g goDir) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := g.rootDir.Readdir(n)

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, err
}
