// Package mbr reads the partition table of a Master Boot Record to find the
// FAT16 volume inside of a partitioned disk image.
package mbr

import (
	"encoding/binary"
	"errors"

	"github.com/aligator/fat16"
	"github.com/aligator/fat16/checkpoint"
)

const (
	partitionTableOffset = 446
	partitionEntrySize   = 16
	signatureOffset      = 510
	signature            = 0xAA55
)

// Partition types of FAT16 volumes.
const (
	TypeFAT16Small = 0x04
	TypeFAT16      = 0x06
	TypeFAT16LBA   = 0x0E
)

// ErrNoMBR is returned for a sector without the boot signature.
var ErrNoMBR = errors.New("no master boot record")

// Partition is one of the four primary partition entries.
type Partition struct {
	Status   uint8
	Type     uint8
	FirstLBA uint32
	Sectors  uint32
}

// IsFAT16 reports whether the partition type denotes a FAT16 volume.
func (p Partition) IsFAT16() bool {
	switch p.Type {
	case TypeFAT16Small, TypeFAT16, TypeFAT16LBA:
		return true
	}
	return false
}

// MBR is a decoded Master Boot Record.
type MBR struct {
	Partitions [4]Partition
}

// Parse decodes the partition table of sector.
func Parse(sector []byte) (*MBR, error) {
	if len(sector) < fat16.SectorSize {
		return nil, checkpoint.Wrapf(fat16.ErrInvalidArgument, "MBR needs %v bytes, got %v", fat16.SectorSize, len(sector))
	}
	if sig := binary.LittleEndian.Uint16(sector[signatureOffset:]); sig != signature {
		return nil, checkpoint.Wrapf(ErrNoMBR, "signature %#04x", sig)
	}

	var m MBR
	for i := range m.Partitions {
		e := sector[partitionTableOffset+i*partitionEntrySize:]
		m.Partitions[i] = Partition{
			Status:   e[0],
			Type:     e[4],
			FirstLBA: binary.LittleEndian.Uint32(e[8:]),
			Sectors:  binary.LittleEndian.Uint32(e[12:]),
		}
	}
	return &m, nil
}

// FAT16Partition returns the first partition holding a FAT16 volume.
func (m *MBR) FAT16Partition() (Partition, bool) {
	for _, p := range m.Partitions {
		if p.IsFAT16() {
			return p, true
		}
	}
	return Partition{}, false
}

// FindFAT16 returns the first sector of the FAT16 volume on disk.
// Unpartitioned images, whose first sector is the boot sector of the volume
// itself, result in 0.
func FindFAT16(disk fat16.SectorReader) (uint32, error) {
	sector := make([]byte, fat16.SectorSize)
	if _, err := disk.ReadSectors(0, sector, 1); err != nil {
		return 0, checkpoint.Wrapf(err, "could not read the MBR")
	}

	// A boot sector carries the same signature, so check for it first.
	if bs, err := fat16.ParseBootSector(sector); err == nil && bs.Validate() == nil {
		return 0, nil
	}

	m, err := Parse(sector)
	if err != nil {
		if errors.Is(err, ErrNoMBR) {
			return 0, nil
		}
		return 0, err
	}

	p, ok := m.FAT16Partition()
	if !ok {
		return 0, nil
	}
	return p.FirstLBA, nil
}
