package fat16

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/aligator/fat16/checkpoint"
	"github.com/golang/glog"
)

// ErrSeekFile is returned for every failed Seek.
var ErrSeekFile = errors.New("could not seek inside of the file")

// File is a regular file of the root directory opened for reading.
// It implements afero.File, all modifying methods fail with ErrReadOnly.
// A File is not safe for concurrent use.
type File struct {
	vol   *Volume
	entry DirEntry
	chain []uint16

	// position is always between 0 and entry.Size.
	position int64
}

// Open opens the file called name in the root directory. The name has to
// match the 8.3 name exactly, see DirEntry.Name.
//
// If the cluster chain of the file cannot be resolved, the file is opened
// anyway and reading it yields no data.
func (v *Volume) Open(name string) (*File, error) {
	dir, err := v.OpenDir(`\`)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	for {
		raw, err := dir.next()
		if err == io.EOF {
			return nil, checkpoint.Wrapf(ErrNotFound, "no file %q in the root directory", name)
		}
		if err != nil {
			return nil, checkpoint.Wrapf(err, "could not search for %q", name)
		}

		if raw.displayName() != name {
			continue
		}

		if raw.attr&(AttrDirectory|AttrVolumeLabel) != 0 {
			return nil, checkpoint.Wrapf(ErrIsADirectory, "%q is no regular file", name)
		}

		f := &File{
			vol:   v,
			entry: raw.entry(),
		}

		f.chain, err = v.resolveChain(raw.firstCluster)
		if err != nil {
			if glog.V(1) {
				glog.Infof("file %q has no readable cluster chain: %v", name, err)
			}
			f.chain = nil
		}

		return f, nil
	}
}

// Read reads up to len(p) bytes from the current position.
// A short read is not an error if some bytes could be read, the next call
// reports what stopped it. At the end of the file Read returns io.EOF, the
// same happens when the cluster chain ends before the size of the file.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.readAt(p, f.position)
	f.position += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes starting at off without moving the position.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, checkpoint.Wrapf(ErrInvalidArgument, "negative offset %v", off)
	}

	n, err := f.readAt(p, off)
	if err == nil && n < len(p) {
		// The next read tells why the data ended.
		if _, err = f.readAt(p[n:], off+int64(n)); err == nil {
			err = io.ErrUnexpectedEOF
		}
	}
	return n, err
}

func (f *File) readAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	size := int64(f.entry.Size)
	if off >= size {
		return 0, io.EOF
	}

	want := size - off
	if int64(len(p)) < want {
		want = int64(len(p))
	}

	clusterSize := int64(f.vol.ClusterSize())
	sector := make([]byte, SectorSize)

	var n int64
	for n < want {
		pos := off + n
		index := pos / clusterSize
		if index >= int64(len(f.chain)) {
			break
		}

		inCluster := pos % clusterSize
		abs := f.vol.clusterSector(f.chain[index]) + inCluster/SectorSize
		if _, err := f.vol.disk.ReadSectors(abs, sector, 1); err != nil {
			if n == 0 {
				return 0, checkpoint.Wrapf(err, "%w: sector %v of %q", ErrOutOfRange, abs, f.entry.Name)
			}
			break
		}

		n += int64(copy(p[n:want], sector[inCluster%SectorSize:]))
	}

	if n == 0 {
		// The chain ends before the size of the entry says it should.
		if glog.V(1) {
			glog.Infof("cluster chain of %q ends at byte %v of %v", f.entry.Name, off, size)
		}
		return 0, io.EOF
	}
	return int(n), nil
}

// Seek moves the position used by Read. Positions outside of the file fail
// with ErrOutOfRange and leave the position unchanged.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.position + offset
	case io.SeekEnd:
		offset = int64(f.entry.Size) + offset
	default:
		return 0, checkpoint.Wrapf(ErrInvalidArgument, "%w: offset: %v, whence: %v", ErrSeekFile, offset, whence)
	}

	if offset < 0 || offset > int64(f.entry.Size) {
		return 0, checkpoint.Wrapf(ErrOutOfRange, "%w: position %v, size %v", ErrSeekFile, offset, f.entry.Size)
	}

	f.position = offset
	return offset, nil
}

// Position returns the current position.
func (f *File) Position() int64 {
	return f.position
}

// Size returns the size of the file in bytes.
func (f *File) Size() int64 {
	return int64(f.entry.Size)
}

// Entry returns the directory entry the file was opened from.
func (f *File) Entry() DirEntry {
	return f.entry
}

// Chain returns the clusters of the file. It is empty if the chain could
// not be resolved.
func (f *File) Chain() []uint16 {
	return f.chain
}

// Close releases the cluster chain. The File must not be used afterwards.
func (f *File) Close() error {
	f.chain = nil
	f.vol = nil
	f.position = 0
	return nil
}

func (f *File) Name() string {
	return f.entry.Name
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.entry.Info(), nil
}

// Readdir fails with syscall.ENOTDIR as a File is never a directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	return nil, checkpoint.Wrapf(syscall.ENOTDIR, "%q", f.entry.Name)
}

func (f *File) Readdirnames(n int) ([]string, error) {
	return nil, checkpoint.Wrapf(syscall.ENOTDIR, "%q", f.entry.Name)
}

func (f *File) Write(p []byte) (int, error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	return 0, checkpoint.From(ErrReadOnly)
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *File) Sync() error {
	return checkpoint.From(ErrReadOnly)
}

func (f *File) Truncate(size int64) error {
	return checkpoint.From(ErrReadOnly)
}
