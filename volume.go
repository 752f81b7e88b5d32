package fat16

import (
	"bytes"
	"encoding/binary"

	"github.com/aligator/fat16/checkpoint"
	"github.com/golang/glog"
)

// Volume is a mounted FAT16 volume.
// The FAT is read once by Mount and never refreshed, so the image must not
// be modified while the Volume is in use.
// A Volume is not safe for concurrent use.
type Volume struct {
	disk        SectorReader
	firstSector uint32
	boot        BootSector

	// fat holds the first copy of the FAT.
	fat     []byte
	fatSize uint32

	rootDirSectors  uint32
	firstDataSector uint32
	totalSectors    uint32
	dataSectors     uint32
	totalClusters   uint32
}

// Mount opens the volume which starts at firstSector of disk.
// It validates the boot sector, loads the FAT and, if the volume has two of
// them, requires both copies to be identical.
func Mount(disk SectorReader, firstSector uint32) (*Volume, error) {
	if disk == nil {
		return nil, checkpoint.Wrapf(ErrInvalidArgument, "no disk")
	}

	sector := make([]byte, SectorSize)
	if _, err := disk.ReadSectors(int64(firstSector), sector, 1); err != nil {
		return nil, checkpoint.Wrapf(err, "could not read the boot sector at %v", firstSector)
	}

	boot, err := ParseBootSector(sector)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	if err := boot.Validate(); err != nil {
		return nil, checkpoint.From(err)
	}

	v := &Volume{
		disk:        disk,
		firstSector: firstSector,
		boot:        boot,
		fatSize:     uint32(boot.SectorsPerFAT) * SectorSize,
	}

	fatStart := firstSector + uint32(boot.ReservedSectors)
	v.fat, err = v.readFAT(fatStart)
	if err != nil {
		return nil, err
	}

	if boot.NumFATs == 2 {
		second, err := v.readFAT(fatStart + uint32(boot.SectorsPerFAT))
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(v.fat, second) {
			glog.Warningf("FAT copies of the volume at sector %v differ", firstSector)
			return nil, checkpoint.Wrapf(ErrFATMismatch, "first FAT at sector %v", fatStart)
		}
	}

	v.rootDirSectors = (uint32(boot.RootEntryCount)*dirEntrySize + SectorSize - 1) / SectorSize
	v.firstDataSector = v.RootDirSector() + v.rootDirSectors
	v.totalSectors = boot.TotalSectors()

	metadataSectors := v.firstDataSector - firstSector
	if metadataSectors > v.totalSectors {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "%v metadata sectors exceed the %v sectors of the volume", metadataSectors, v.totalSectors)
	}
	v.dataSectors = v.totalSectors - metadataSectors
	v.totalClusters = v.dataSectors / uint32(boot.SectorsPerCluster)

	if glog.V(1) {
		glog.Infof("mounted FAT16 volume %q at sector %v: %v clusters of %v bytes, data at sector %v",
			boot.Label(), firstSector, v.totalClusters, v.ClusterSize(), v.firstDataSector)
	}

	return v, nil
}

func (v *Volume) readFAT(sector uint32) ([]byte, error) {
	buf := make([]byte, v.fatSize)
	if _, err := v.disk.ReadSectors(int64(sector), buf, int(v.boot.SectorsPerFAT)); err != nil {
		return nil, checkpoint.Wrapf(err, "could not read the FAT at sector %v", sector)
	}
	return buf, nil
}

// Close releases the FAT. The Volume must not be used afterwards.
// Files and directories opened from it become invalid.
func (v *Volume) Close() error {
	v.fat = nil
	v.disk = nil
	return nil
}

// BootSector returns the decoded boot sector.
func (v *Volume) BootSector() BootSector {
	return v.boot
}

// Label returns the volume label of the boot sector.
func (v *Volume) Label() string {
	return v.boot.Label()
}

// FirstSector returns the absolute sector the volume starts at.
func (v *Volume) FirstSector() uint32 {
	return v.firstSector
}

// FATSize returns the size of one FAT in bytes.
func (v *Volume) FATSize() uint32 {
	return v.fatSize
}

// RootDirSector returns the absolute first sector of the root directory.
func (v *Volume) RootDirSector() uint32 {
	return v.firstSector + uint32(v.boot.ReservedSectors) + uint32(v.boot.NumFATs)*uint32(v.boot.SectorsPerFAT)
}

// RootDirSectors returns the number of sectors used by the root directory.
func (v *Volume) RootDirSectors() uint32 {
	return v.rootDirSectors
}

// FirstDataSector returns the absolute sector of cluster 2.
func (v *Volume) FirstDataSector() uint32 {
	return v.firstDataSector
}

// TotalSectors returns the size of the volume in sectors.
func (v *Volume) TotalSectors() uint32 {
	return v.totalSectors
}

// DataSectors returns the number of sectors of the data region.
func (v *Volume) DataSectors() uint32 {
	return v.dataSectors
}

// TotalClusters returns the number of clusters of the data region.
func (v *Volume) TotalClusters() uint32 {
	return v.totalClusters
}

// ClusterSize returns the size of one cluster in bytes.
func (v *Volume) ClusterSize() uint32 {
	return uint32(v.boot.SectorsPerCluster) * SectorSize
}

// FATEntry returns the raw FAT entry of the given cluster.
func (v *Volume) FATEntry(cluster uint16) (uint16, error) {
	offset := int(cluster) * 2
	if offset+2 > len(v.fat) {
		return 0, checkpoint.Wrapf(ErrOutOfRange, "cluster %v is outside of the FAT", cluster)
	}
	return binary.LittleEndian.Uint16(v.fat[offset:]), nil
}

// clusterSector returns the absolute first sector of a data cluster.
func (v *Volume) clusterSector(cluster uint16) int64 {
	return int64(v.firstDataSector) + (int64(cluster)-2)*int64(v.boot.SectorsPerCluster)
}

// resolveChain resolves the chain of a file starting at first.
func (v *Volume) resolveChain(first uint16) ([]uint16, error) {
	return ResolveChain(v.fat, first)
}
