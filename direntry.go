package fat16

import (
	"encoding/binary"
	"os"
	"strings"
	"time"
)

const dirEntrySize = 32

const (
	// entryEnd as first name byte marks the end of the directory.
	entryEnd = 0x00
	// entryDeleted as first name byte marks a deleted entry.
	entryDeleted = 0xE5
)

// Attr is the attribute bitmask of a directory entry.
type Attr uint8

const (
	AttrReadOnly    Attr = 0x01
	AttrHidden      Attr = 0x02
	AttrSystem      Attr = 0x04
	AttrVolumeLabel Attr = 0x08
	AttrDirectory   Attr = 0x10
	AttrArchive     Attr = 0x20

	// AttrLongName marks a fragment of a long filename.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeLabel
)

// rawEntry is a directory entry as stored on disk.
type rawEntry struct {
	name         [8]byte
	ext          [3]byte
	attr         Attr
	writeTime    uint16
	writeDate    uint16
	firstCluster uint16
	size         uint32
}

func parseRawEntry(b []byte) rawEntry {
	le := binary.LittleEndian
	var e rawEntry
	copy(e.name[:], b[0:8])
	copy(e.ext[:], b[8:11])
	e.attr = Attr(b[11])
	e.writeTime = le.Uint16(b[22:])
	e.writeDate = le.Uint16(b[24:])
	e.firstCluster = le.Uint16(b[26:])
	e.size = le.Uint32(b[28:])
	return e
}

func (e rawEntry) isEnd() bool {
	return e.name[0] == entryEnd
}

func (e rawEntry) isDeleted() bool {
	return e.name[0] == entryDeleted
}

// displayName returns NAME or NAME.EXT with the padding removed.
func (e rawEntry) displayName() string {
	name := strings.TrimRight(string(e.name[:]), " ")
	ext := strings.TrimRight(string(e.ext[:]), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

func (e rawEntry) entry() DirEntry {
	return DirEntry{
		Name:         e.displayName(),
		Attr:         e.attr,
		FirstCluster: e.firstCluster,
		Size:         e.size,
		ModTime:      decodeTimestamp(e.writeDate, e.writeTime),
	}
}

// DirEntry describes a file or directory of the root directory.
type DirEntry struct {
	// Name is the 8.3 name in the form NAME or NAME.EXT, case as stored.
	Name         string
	Attr         Attr
	FirstCluster uint16
	Size         uint32
	// ModTime is the last write time, the zero time if it is invalid.
	ModTime time.Time
}

func (e DirEntry) IsArchived() bool    { return e.Attr&AttrArchive != 0 }
func (e DirEntry) IsReadOnly() bool    { return e.Attr&AttrReadOnly != 0 }
func (e DirEntry) IsSystem() bool      { return e.Attr&AttrSystem != 0 }
func (e DirEntry) IsHidden() bool      { return e.Attr&AttrHidden != 0 }
func (e DirEntry) IsDir() bool         { return e.Attr&AttrDirectory != 0 }
func (e DirEntry) IsVolumeLabel() bool { return e.Attr&AttrVolumeLabel != 0 }

// Info returns the entry as os.FileInfo.
func (e DirEntry) Info() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry DirEntry
}

func (i entryFileInfo) Name() string       { return i.entry.Name }
func (i entryFileInfo) Size() int64        { return int64(i.entry.Size) }
func (i entryFileInfo) ModTime() time.Time { return i.entry.ModTime }
func (i entryFileInfo) IsDir() bool        { return i.entry.IsDir() }
func (i entryFileInfo) Sys() interface{}   { return i.entry }

func (i entryFileInfo) Mode() os.FileMode {
	// Nothing on this filesystem is writable.
	if i.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

// decodeTimestamp combines a DOS date and time stamp.
//
// The date holds the day (bits 0-4), the month (bits 5-8) and the years
// since 1980 (bits 9-15). The time holds the seconds divided by two
// (bits 0-4), the minutes (bits 5-10) and the hours (bits 11-15).
// A date with day or month 0 is invalid and results in the zero time.
func decodeTimestamp(date, tm uint16) time.Time {
	day := int(date & 0x1F)
	month := time.Month(date >> 5 & 0x0F)
	year := 1980 + int(date>>9)
	if day == 0 || month == 0 {
		return time.Time{}
	}

	sec := int(tm&0x1F) * 2
	min := int(tm >> 5 & 0x3F)
	hour := int(tm >> 11)
	if hour > 23 || min > 59 || sec > 59 {
		hour, min, sec = 0, 0, 0
	}

	return time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}
