package fat16

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aligator/fat16/internal/imagetest"
	"github.com/spf13/afero"
)

// testsError is just an error used in tests.
var testsError = errors.New("a super error")

// testDisk stores data as image in a memory filesystem and opens it.
func testDisk(t *testing.T, data []byte) *Disk {
	t.Helper()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "disk.img", data, 0644); err != nil {
		t.Fatal(err)
	}

	disk, err := OpenDisk(fsys, "disk.img")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { disk.Close() })
	return disk
}

// testVolume mounts the volume built by img.
func testVolume(t *testing.T, img *imagetest.Image) *Volume {
	t.Helper()

	vol, err := Mount(testDisk(t, img.Bytes()), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { vol.Close() })
	return vol
}

// pattern returns n bytes which do not repeat every sector.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/251)
	}
	return b
}

// sampleImage holds a label, a deleted file, a long filename fragment,
// a directory and some files.
func sampleImage() (*imagetest.Image, map[string][]byte) {
	img := imagetest.New(imagetest.DefaultGeometry())
	files := map[string][]byte{
		"README.TXT": bytes.Repeat([]byte("0123456789"), 10),
		"DATA.BIN":   pattern(5000),
		"EMPTY":      {},
	}

	img.AddEntry(imagetest.Entry{Name: "TESTVOL", Attr: 0x08})
	img.AddFile("README", "TXT", files["README.TXT"])
	img.AddEntry(imagetest.Entry{Name: "\xE5ONE", Ext: "TXT", Attr: 0x20, FirstCluster: 40, Size: 3})
	img.AddEntry(imagetest.Entry{Name: "Ab\x00c", Ext: "e\x00f", Attr: 0x0F})
	img.AddFileAt("DATA", "BIN", files["DATA.BIN"], []uint16{30, 12, 50})
	img.AddEntry(imagetest.Entry{Name: "SUBDIR", Attr: 0x10, FirstCluster: 60})
	img.SetFAT(60, imagetest.EndOfChain)
	img.AddFile("EMPTY", "", files["EMPTY"])
	return img, files
}
