// Package imagetest builds small FAT16 images in memory. The images are
// laid out like the ones mkfs.fat creates, but every field can be changed
// afterwards to produce broken images.
package imagetest

import (
	"encoding/binary"
	"fmt"
)

const (
	SectorSize = 512

	// EndOfChain marks the last cluster of a chain.
	EndOfChain = uint16(0xFFFF)

	hardDisk = uint8(0xF8)
)

// Geometry describes the layout of an image.
type Geometry struct {
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntries       uint16
	SectorsPerFAT     uint16
	// DataClusters is the number of clusters of the data region.
	DataClusters uint32
	// Use32BitCount stores the sector count in the 32 bit field.
	Use32BitCount bool
	Label         string
}

// DefaultGeometry is a volume with two FATs, 512 root entries and 64 data
// clusters of 4 sectors.
func DefaultGeometry() Geometry {
	return Geometry{
		SectorsPerCluster: 4,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntries:       512,
		SectorsPerFAT:     1,
		DataClusters:      64,
		Label:             "TESTVOLUME",
	}
}

func (g Geometry) rootDirSectors() uint32 {
	return (uint32(g.RootEntries)*32 + SectorSize - 1) / SectorSize
}

func (g Geometry) fatSector(n int) uint32 {
	return uint32(g.ReservedSectors) + uint32(n)*uint32(g.SectorsPerFAT)
}

// RootDirSector is the first sector of the root directory.
func (g Geometry) RootDirSector() uint32 {
	return g.fatSector(int(g.NumFATs))
}

// FirstDataSector is the sector of cluster 2.
func (g Geometry) FirstDataSector() uint32 {
	return g.RootDirSector() + g.rootDirSectors()
}

// TotalSectors is the size of the volume in sectors.
func (g Geometry) TotalSectors() uint32 {
	return g.FirstDataSector() + g.DataClusters*uint32(g.SectorsPerCluster)
}

// ClusterSize is the size of a cluster in bytes.
func (g Geometry) ClusterSize() int {
	return int(g.SectorsPerCluster) * SectorSize
}

// Entry is a root directory entry.
type Entry struct {
	Name         string
	Ext          string
	Attr         uint8
	FirstCluster uint16
	Size         uint32
	WriteTime    uint16
	WriteDate    uint16
}

// Image is a FAT16 volume under construction.
type Image struct {
	Geometry Geometry

	buf         []byte
	nextCluster uint16
	nextEntry   int
}

// New creates an empty, valid volume.
func New(g Geometry) *Image {
	img := &Image{
		Geometry:    g,
		buf:         make([]byte, int(g.TotalSectors())*SectorSize),
		nextCluster: 2,
	}
	img.writeBootSector()

	// The first two FAT entries hold the media descriptor and the clean flag.
	img.SetFAT(0, uint16(0xFF00)|uint16(hardDisk))
	img.SetFAT(1, 0xFFFF)
	return img
}

func (img *Image) writeBootSector() {
	g := img.Geometry
	b := img.buf[:SectorSize]
	le := binary.LittleEndian

	copy(b[0:], []byte{0xEB, 0x3C, 0x90})
	copy(b[3:], "mkfs.fat")
	le.PutUint16(b[11:], SectorSize)
	b[13] = g.SectorsPerCluster
	le.PutUint16(b[14:], g.ReservedSectors)
	b[16] = g.NumFATs
	le.PutUint16(b[17:], g.RootEntries)
	if g.Use32BitCount {
		le.PutUint32(b[32:], g.TotalSectors())
	} else {
		le.PutUint16(b[19:], uint16(g.TotalSectors()))
	}
	b[21] = hardDisk
	le.PutUint16(b[22:], g.SectorsPerFAT)
	le.PutUint16(b[24:], 32) // sectors per track
	le.PutUint16(b[26:], 2)  // heads
	b[36] = 0x80             // drive number
	b[38] = 0x29             // extended boot signature
	le.PutUint32(b[39:], 0x1234ABCD)
	copy(b[43:], fmt.Sprintf("%-11s", g.Label))
	copy(b[54:], "FAT16   ")
	le.PutUint16(b[510:], 0xAA55)
}

// BootSector returns the boot sector for modification.
func (img *Image) BootSector() []byte {
	return img.buf[:SectorSize]
}

// SetFAT sets the entry of cluster in every FAT copy.
func (img *Image) SetFAT(cluster, value uint16) {
	for i := 0; i < int(img.Geometry.NumFATs); i++ {
		img.SetFATCopy(i, cluster, value)
	}
}

// SetFATCopy sets the entry of cluster in one FAT copy only.
func (img *Image) SetFATCopy(n int, cluster, value uint16) {
	off := int(img.Geometry.fatSector(n))*SectorSize + int(cluster)*2
	binary.LittleEndian.PutUint16(img.buf[off:], value)
}

// ClusterOffset returns the byte offset of a data cluster.
func (img *Image) ClusterOffset(cluster uint16) int {
	sector := int(img.Geometry.FirstDataSector()) + (int(cluster)-2)*int(img.Geometry.SectorsPerCluster)
	return sector * SectorSize
}

// AddEntry appends e to the root directory without allocating anything.
func (img *Image) AddEntry(e Entry) {
	if img.nextEntry >= int(img.Geometry.RootEntries) {
		panic("imagetest: root directory is full")
	}

	off := int(img.Geometry.RootDirSector())*SectorSize + img.nextEntry*32
	b := img.buf[off : off+32]
	copy(b[0:8], fmt.Sprintf("%-8s", e.Name))
	copy(b[8:11], fmt.Sprintf("%-3s", e.Ext))
	b[11] = e.Attr
	le := binary.LittleEndian
	le.PutUint16(b[22:], e.WriteTime)
	le.PutUint16(b[24:], e.WriteDate)
	le.PutUint16(b[26:], e.FirstCluster)
	le.PutUint32(b[28:], e.Size)
	img.nextEntry++
}

// AddFile stores data in consecutive free clusters, links them in the FAT
// and adds a root directory entry. It returns the clusters used.
func (img *Image) AddFile(name, ext string, data []byte) []uint16 {
	count := (len(data) + img.Geometry.ClusterSize() - 1) / img.Geometry.ClusterSize()
	clusters := make([]uint16, count)
	for i := range clusters {
		clusters[i] = img.nextCluster
		img.nextCluster++
	}
	img.AddFileAt(name, ext, data, clusters)
	return clusters
}

// AddFileAt is like AddFile but uses the given clusters in the given order.
func (img *Image) AddFileAt(name, ext string, data []byte, clusters []uint16) {
	cs := img.Geometry.ClusterSize()
	for i, c := range clusters {
		chunk := data[i*cs:]
		if len(chunk) > cs {
			chunk = chunk[:cs]
		}
		copy(img.buf[img.ClusterOffset(c):], chunk)

		next := EndOfChain
		if i+1 < len(clusters) {
			next = clusters[i+1]
		}
		img.SetFAT(c, next)
	}

	var first uint16
	if len(clusters) > 0 {
		first = clusters[0]
	}
	img.AddEntry(Entry{
		Name:         name,
		Ext:          ext,
		Attr:         0x20,
		FirstCluster: first,
		Size:         uint32(len(data)),
	})
}

// Bytes returns the image.
func (img *Image) Bytes() []byte {
	return img.buf
}

// Partitioned puts volume into a disk image with an MBR whose first
// partition starts at firstLBA and has the given type.
func Partitioned(volume []byte, firstLBA uint32, partitionType byte) []byte {
	disk := make([]byte, int(firstLBA)*SectorSize+len(volume))
	copy(disk[int(firstLBA)*SectorSize:], volume)

	e := disk[446:462]
	e[0] = 0x00
	e[4] = partitionType
	binary.LittleEndian.PutUint32(e[8:], firstLBA)
	binary.LittleEndian.PutUint32(e[12:], uint32(len(volume)/SectorSize))
	binary.LittleEndian.PutUint16(disk[510:], 0xAA55)
	return disk
}
