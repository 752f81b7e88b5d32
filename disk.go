package fat16

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aligator/fat16/checkpoint"
	"github.com/golang/glog"
	"github.com/spf13/afero"
)

// SectorSize is the size of the unit in which a Disk is addressed.
const SectorSize = 512

// SectorReader provides sector addressed read access.
// It mainly exists to be able to mock the Disk in tests.
// Generated mock using mockgen:
//  mockgen -source=disk.go -destination=disk_mock.go -package fat16
type SectorReader interface {
	// ReadSectors fills buf with sectorCount sectors starting at firstSector
	// and returns the number of sectors read.
	ReadSectors(firstSector int64, buf []byte, sectorCount int) (int, error)
}

// Disk is a disk image which is read in units of SectorSize bytes.
type Disk struct {
	file afero.File
	size int64
}

// OpenDisk opens the image at path inside of fsys.
// The error matches ErrNotFound if the image does not exist.
func OpenDisk(fsys afero.Fs, path string) (*Disk, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, checkpoint.Wrapf(err, "%w: disk image %v", ErrNotFound, path)
		}
		return nil, checkpoint.Wrapf(err, "could not open disk image %v", path)
	}

	d, err := NewDisk(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// NewDisk uses the already opened f as disk image. The Disk takes
// ownership of f, which gets closed by Disk.Close.
func NewDisk(f afero.File) (*Disk, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, checkpoint.Wrapf(err, "could not stat disk image %v", f.Name())
	}

	size := info.Size()
	if info.Mode()&os.ModeDevice != 0 {
		if fd, ok := f.(interface{ Fd() uintptr }); ok {
			if devSize, err := blockDeviceSize(fd.Fd()); err == nil {
				size = devSize
			}
		}
	}

	if glog.V(2) {
		glog.Info("disk image: ", f.Name())
		glog.Info("      size: ", size)
		glog.Info("      mode: ", info.Mode())
	}

	return &Disk{
		file: f,
		size: size,
	}, nil
}

// Size returns the size of the image in bytes.
func (d *Disk) Size() int64 {
	return d.size
}

// ReadSectors reads sectorCount sectors beginning at firstSector into buf,
// which has to hold at least sectorCount*SectorSize bytes.
// Reading anything beyond the end of the image fails with ErrOutOfRange.
func (d *Disk) ReadSectors(firstSector int64, buf []byte, sectorCount int) (int, error) {
	if firstSector < 0 || sectorCount <= 0 || buf == nil {
		return 0, checkpoint.Wrapf(ErrInvalidArgument, "first sector: %v, sector count: %v", firstSector, sectorCount)
	}

	length := int64(sectorCount) * SectorSize
	if int64(len(buf)) < length {
		return 0, checkpoint.Wrapf(ErrInvalidArgument, "buffer of %v bytes cannot hold %v sectors", len(buf), sectorCount)
	}

	offset := firstSector * SectorSize
	if offset+length > d.size {
		return 0, checkpoint.Wrapf(ErrOutOfRange, "sectors %v-%v are outside of the image", firstSector, firstSector+int64(sectorCount)-1)
	}

	n, err := d.file.ReadAt(buf[:length], offset)
	if int64(n) != length {
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return n / SectorSize, checkpoint.Wrapf(ErrOutOfRange, "read %v of %v sectors at sector %v", n/SectorSize, sectorCount, firstSector)
		}
		return n / SectorSize, checkpoint.Wrap(err, fmt.Errorf("%w: read %v of %v sectors at sector %v", ErrOutOfRange, n/SectorSize, sectorCount, firstSector))
	}

	return sectorCount, nil
}

// Close releases the image. The Disk must not be used afterwards.
func (d *Disk) Close() error {
	return checkpoint.From(d.file.Close())
}
