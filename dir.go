package fat16

import (
	"io"

	"github.com/aligator/fat16/checkpoint"
)

const entriesPerSector = SectorSize / dirEntrySize

// Dir iterates the root directory of a Volume.
// The iteration cannot be restarted, open a new Dir instead.
type Dir struct {
	vol *Volume

	// sector is the absolute first sector of the root directory.
	sector   uint32
	index    uint32
	capacity uint32
	done     bool

	// buf holds the sector containing the entry at index.
	buf [SectorSize]byte
}

// OpenDir opens the directory at path for reading. Only the root directory,
// written as `\` or `/`, is supported.
func (v *Volume) OpenDir(path string) (*Dir, error) {
	if path != `\` && path != "/" {
		return nil, checkpoint.Wrapf(ErrUnsupported, "only the root directory can be opened, not %q", path)
	}

	return &Dir{
		vol:      v,
		sector:   v.RootDirSector(),
		capacity: uint32(v.boot.RootEntryCount),
	}, nil
}

// next returns the next entry which is neither deleted nor unused.
// Volume labels and long filename fragments are returned as well.
func (d *Dir) next() (rawEntry, error) {
	for !d.done && d.index < d.capacity {
		slot := d.index % entriesPerSector
		if slot == 0 {
			sectorIndex := d.index / entriesPerSector
			if sectorIndex >= d.vol.rootDirSectors {
				return rawEntry{}, checkpoint.Wrapf(ErrOutOfRange, "directory sector %v is outside of the root directory", sectorIndex)
			}
			if _, err := d.vol.disk.ReadSectors(int64(d.sector+sectorIndex), d.buf[:], 1); err != nil {
				return rawEntry{}, checkpoint.Wrapf(err, "could not read directory sector %v", sectorIndex)
			}
		}

		d.index++
		raw := parseRawEntry(d.buf[slot*dirEntrySize:])
		if raw.isEnd() {
			d.done = true
			break
		}
		if raw.isDeleted() {
			continue
		}
		return raw, nil
	}

	return rawEntry{}, io.EOF
}

// Read returns the next entry of the directory in on-disk order.
// Volume labels and long filename fragments are skipped.
// At the end of the directory Read returns io.EOF.
func (d *Dir) Read() (DirEntry, error) {
	for {
		raw, err := d.next()
		if err != nil {
			return DirEntry{}, err
		}
		if raw.attr&AttrVolumeLabel != 0 {
			continue
		}
		return raw.entry(), nil
	}
}

// ReadAll returns all remaining entries.
func (d *Dir) ReadAll() ([]DirEntry, error) {
	var entries []DirEntry
	for {
		e, err := d.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}

// Close releases the Dir.
func (d *Dir) Close() error {
	d.vol = nil
	d.done = true
	return nil
}
