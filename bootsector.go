package fat16

import (
	"encoding/binary"
	"strings"

	"github.com/aligator/fat16/checkpoint"
)

// bootSectorSignature terminates every valid boot sector.
const bootSectorSignature = 0xAA55

// Byte offsets of the boot sector fields.
const (
	offJumpBoot          = 0
	offOEMName           = 3
	offBytesPerSector    = 11
	offSectorsPerCluster = 13
	offReservedSectors   = 14
	offNumFATs           = 16
	offRootEntryCount    = 17
	offTotalSectors16    = 19
	offMedia             = 21
	offSectorsPerFAT     = 22
	offSectorsPerTrack   = 24
	offNumberOfHeads     = 26
	offHiddenSectors     = 28
	offTotalSectors32    = 32
	offDriveNumber       = 36
	offBootSignature     = 38
	offVolumeID          = 39
	offVolumeLabel       = 43
	offFileSystemType    = 54
	offSignature         = 510
)

// BootSector is the decoded first sector of a FAT16 volume.
type BootSector struct {
	JumpBoot          [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT     uint16
	SectorsPerTrack   uint16
	NumberOfHeads     uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
	DriveNumber       uint8
	BootSignature     uint8
	VolumeID          uint32
	VolumeLabel       [11]byte
	FileSystemType    [8]byte
	Signature         uint16
}

// ParseBootSector decodes the first SectorSize bytes of b.
// It does not validate the content, use BootSector.Validate for that.
func ParseBootSector(b []byte) (BootSector, error) {
	if len(b) < SectorSize {
		return BootSector{}, checkpoint.Wrapf(ErrInvalidArgument, "boot sector needs %v bytes, got %v", SectorSize, len(b))
	}

	le := binary.LittleEndian
	var bs BootSector
	copy(bs.JumpBoot[:], b[offJumpBoot:])
	copy(bs.OEMName[:], b[offOEMName:])
	bs.BytesPerSector = le.Uint16(b[offBytesPerSector:])
	bs.SectorsPerCluster = b[offSectorsPerCluster]
	bs.ReservedSectors = le.Uint16(b[offReservedSectors:])
	bs.NumFATs = b[offNumFATs]
	bs.RootEntryCount = le.Uint16(b[offRootEntryCount:])
	bs.TotalSectors16 = le.Uint16(b[offTotalSectors16:])
	bs.Media = b[offMedia]
	bs.SectorsPerFAT = le.Uint16(b[offSectorsPerFAT:])
	bs.SectorsPerTrack = le.Uint16(b[offSectorsPerTrack:])
	bs.NumberOfHeads = le.Uint16(b[offNumberOfHeads:])
	bs.HiddenSectors = le.Uint32(b[offHiddenSectors:])
	bs.TotalSectors32 = le.Uint32(b[offTotalSectors32:])
	bs.DriveNumber = b[offDriveNumber]
	bs.BootSignature = b[offBootSignature]
	bs.VolumeID = le.Uint32(b[offVolumeID:])
	copy(bs.VolumeLabel[:], b[offVolumeLabel:])
	copy(bs.FileSystemType[:], b[offFileSystemType:])
	bs.Signature = le.Uint16(b[offSignature:])

	return bs, nil
}

// Validate checks the geometry of the boot sector.
// All returned errors match ErrInvalidBootSector and ErrCorruption.
func (bs BootSector) Validate() error {
	if bs.BytesPerSector != SectorSize {
		return invalidBootSector("bytes per sector must be %v, got %v", SectorSize, bs.BytesPerSector)
	}

	// Sectors per cluster has to be a power of two between 1 and 128.
	spc := bs.SectorsPerCluster
	if spc == 0 || spc > 128 || spc&(spc-1) != 0 {
		return invalidBootSector("invalid sectors per cluster: %v", spc)
	}

	if bs.ReservedSectors == 0 {
		return invalidBootSector("reserved sector count must not be 0")
	}

	if bs.NumFATs != 1 && bs.NumFATs != 2 {
		return invalidBootSector("invalid number of FATs: %v", bs.NumFATs)
	}

	if uint32(bs.RootEntryCount)*dirEntrySize%SectorSize != 0 {
		return invalidBootSector("root directory of %v entries does not fill whole sectors", bs.RootEntryCount)
	}

	if (bs.TotalSectors16 == 0) == (bs.TotalSectors32 == 0) {
		return invalidBootSector("exactly one total sector count must be set, got %v and %v", bs.TotalSectors16, bs.TotalSectors32)
	}

	// Volumes which would fit the 16 bit count are rejected if they only use
	// the 32 bit count. It is unclear whether images exist which need this to
	// be relaxed, so it stays as strict as it always was.
	if bs.TotalSectors16 == 0 && bs.TotalSectors32 <= 0xFFFF {
		return invalidBootSector("32 bit total sector count %v fits into 16 bit", bs.TotalSectors32)
	}

	if bs.SectorsPerFAT < 1 {
		return invalidBootSector("sectors per FAT must not be 0")
	}

	if bs.Signature != bootSectorSignature {
		return invalidBootSector("expected signature %#04x, got %#04x", bootSectorSignature, bs.Signature)
	}

	return nil
}

// TotalSectors returns whichever of the two sector counts is set.
func (bs BootSector) TotalSectors() uint32 {
	if bs.TotalSectors16 != 0 {
		return uint32(bs.TotalSectors16)
	}
	return bs.TotalSectors32
}

// Label returns the volume label without padding.
func (bs BootSector) Label() string {
	return strings.TrimRight(string(bs.VolumeLabel[:]), " \x00")
}

func invalidBootSector(format string, args ...interface{}) error {
	return checkpoint.Wrapf(ErrInvalidBootSector, format, args...)
}
