package fat16

import (
	"errors"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// The classification of every error returned by this package.
// All returned errors can be matched against them with errors.Is.
var (
	ErrInvalidArgument = os.ErrInvalid
	ErrNotFound        = os.ErrNotExist
	ErrOutOfRange      = afero.ErrOutOfRange
	ErrCorruption      = errors.New("filesystem corrupted")
	ErrIsADirectory    = syscall.EISDIR
	ErrUnsupported     = errors.New("unsupported operation")
	ErrReadOnly        = syscall.EROFS
)

// These errors refine ErrCorruption.
var (
	ErrInvalidBootSector = corruption("invalid boot sector")
	ErrFATMismatch       = corruption("the FAT copies differ")
	ErrBrokenChain       = corruption("broken cluster chain")
	ErrChainLoop         = corruption("cluster chain does not terminate")
)

// corruptionError is a sentinel which is also matched by ErrCorruption.
type corruptionError struct {
	msg string
}

func corruption(msg string) error {
	return &corruptionError{msg: msg}
}

func (e *corruptionError) Error() string {
	return e.msg
}

func (e *corruptionError) Is(target error) bool {
	return target == ErrCorruption
}
