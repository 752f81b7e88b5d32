package fat16

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestOpenDisk(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "disk.img", make([]byte, 3*SectorSize), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantSize int64
		wantErr  error
	}{
		{
			name:     "existing image",
			path:     "disk.img",
			wantSize: 3 * SectorSize,
		},
		{
			name:    "missing image",
			path:    "missing.img",
			wantErr: ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OpenDisk(fsys, tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("OpenDisk() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if !os.IsNotExist(errors.Unwrap(err)) {
					t.Errorf("OpenDisk() error = %v, want the os error inside", err)
				}
				return
			}
			defer got.Close()

			if got.Size() != tt.wantSize {
				t.Errorf("Disk.Size() = %v, want %v", got.Size(), tt.wantSize)
			}
		})
	}
}

func TestDisk_ReadSectors(t *testing.T) {
	data := pattern(4 * SectorSize)
	disk := testDisk(t, data)

	tests := []struct {
		name        string
		firstSector int64
		buf         []byte
		sectorCount int
		want        []byte
		wantErr     error
	}{
		{
			name:        "first sector",
			firstSector: 0,
			buf:         make([]byte, SectorSize),
			sectorCount: 1,
			want:        data[:SectorSize],
		},
		{
			name:        "last two sectors",
			firstSector: 2,
			buf:         make([]byte, 2*SectorSize),
			sectorCount: 2,
			want:        data[2*SectorSize:],
		},
		{
			name:        "bigger buffer is only filled partially",
			firstSector: 1,
			buf:         make([]byte, 3*SectorSize),
			sectorCount: 1,
			want:        data[SectorSize : 2*SectorSize],
		},
		{
			name:        "negative sector",
			firstSector: -1,
			buf:         make([]byte, SectorSize),
			sectorCount: 1,
			wantErr:     ErrInvalidArgument,
		},
		{
			name:        "zero sectors",
			buf:         make([]byte, SectorSize),
			sectorCount: 0,
			wantErr:     ErrInvalidArgument,
		},
		{
			name:        "no buffer",
			sectorCount: 1,
			wantErr:     ErrInvalidArgument,
		},
		{
			name:        "buffer too small",
			buf:         make([]byte, SectorSize),
			sectorCount: 2,
			wantErr:     ErrInvalidArgument,
		},
		{
			name:        "behind the end",
			firstSector: 4,
			buf:         make([]byte, SectorSize),
			sectorCount: 1,
			wantErr:     ErrOutOfRange,
		},
		{
			name:        "overlapping the end",
			firstSector: 3,
			buf:         make([]byte, 2*SectorSize),
			sectorCount: 2,
			wantErr:     ErrOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := disk.ReadSectors(tt.firstSector, tt.buf, tt.sectorCount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Disk.ReadSectors() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if n != tt.sectorCount {
				t.Errorf("Disk.ReadSectors() = %v, want %v", n, tt.sectorCount)
			}
			if diff := cmp.Diff(tt.want, tt.buf[:len(tt.want)]); diff != "" {
				t.Errorf("unexpected sector content: diff (-want +got):\n%s", diff)
			}
		})
	}
}

// shortFile reports a bigger size than it can deliver.
type shortFile struct {
	afero.File
}

func (f shortFile) Stat() (os.FileInfo, error) {
	return sizeInfo{size: 2 * SectorSize}, nil
}

type sizeInfo struct {
	os.FileInfo
	size int64
}

func (i sizeInfo) Size() int64       { return i.size }
func (i sizeInfo) Mode() os.FileMode { return 0644 }
func (i sizeInfo) Name() string      { return "short.img" }

func TestDisk_ReadSectorsShortRead(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "short.img", make([]byte, SectorSize), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := fsys.Open("short.img")
	if err != nil {
		t.Fatal(err)
	}

	disk, err := NewDisk(shortFile{f})
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close()

	_, err = disk.ReadSectors(0, make([]byte, 2*SectorSize), 2)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Disk.ReadSectors() error = %v, want %v", err, ErrOutOfRange)
	}
}
