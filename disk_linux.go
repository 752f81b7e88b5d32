//go:build linux
// +build linux

package fat16

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// blockDeviceSize asks the kernel for the size of a block device in bytes.
// BLKGETSIZE64 always writes a 64 bit value, whatever the size of int is.
func blockDeviceSize(fd uintptr) (int64, error) {
	var size uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return 0, errno
	}
	return int64(size), nil
}
