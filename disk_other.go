//go:build !linux
// +build !linux

package fat16

import "syscall"

func blockDeviceSize(fd uintptr) (int64, error) {
	return 0, syscall.EOPNOTSUPP
}
