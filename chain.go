package fat16

import (
	"encoding/binary"

	"github.com/aligator/fat16/checkpoint"
)

// fatEntry is a single link of the FAT.
type fatEntry uint16

// IsFree reports an unallocated cluster.
func (e fatEntry) IsFree() bool {
	return e == 0x0000
}

// IsReserved reports the value 0x0001 which never appears in a valid chain.
func (e fatEntry) IsReserved() bool {
	return e == 0x0001
}

// IsBad reports a cluster marked as defective.
func (e fatEntry) IsBad() bool {
	return e == 0xFFF7
}

// IsEOC reports the end of a cluster chain.
func (e fatEntry) IsEOC() bool {
	return e >= 0xFFF8
}

// IsNext reports whether e links to another cluster.
func (e fatEntry) IsNext() bool {
	return !e.IsFree() && !e.IsReserved() && !e.IsBad() && !e.IsEOC()
}

// ResolveChain follows the links of the FAT table starting at the cluster
// first and returns all clusters of the chain in order.
// The cluster whose entry holds the end of chain marker is the last one
// returned.
//
// A chain running into a free, bad or reserved entry fails with
// ErrBrokenChain. A chain which is longer than the table has entries can
// only be a loop and fails with ErrChainLoop.
func ResolveChain(table []byte, first uint16) ([]uint16, error) {
	if table == nil || len(table)%2 != 0 || len(table) < 4 {
		return nil, checkpoint.Wrapf(ErrInvalidArgument, "invalid FAT of %v bytes", len(table))
	}
	if first < 2 {
		return nil, checkpoint.Wrapf(ErrInvalidArgument, "chain cannot start at cluster %v", first)
	}

	maxLength := len(table) / 2
	var chain []uint16

	cluster := first
	for {
		if len(chain) >= maxLength {
			return nil, checkpoint.Wrapf(ErrChainLoop, "chain starting at %v visited more than %v clusters", first, maxLength)
		}

		offset := int(cluster) * 2
		if offset+2 > len(table) {
			return nil, checkpoint.Wrapf(ErrOutOfRange, "cluster %v is outside of the FAT", cluster)
		}

		chain = append(chain, cluster)

		entry := fatEntry(binary.LittleEndian.Uint16(table[offset:]))
		switch {
		case entry.IsEOC():
			return chain, nil
		case !entry.IsNext():
			return nil, checkpoint.Wrapf(ErrBrokenChain, "cluster %v links to %#04x", cluster, uint16(entry))
		}

		cluster = uint16(entry)
	}
}
