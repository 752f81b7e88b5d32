// fat16cat lists the root directory of a FAT16 image and prints one of its
// files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aligator/fat16"
	"github.com/aligator/fat16/mbr"
	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

var (
	partition = pflag.String("partition", "auto",
		`first sector of the volume, or "auto" to read it from the MBR`)
	fileName = pflag.String("file", "",
		"file to print, defaults to the first non-empty regular file")
	maxBytes = pflag.Int("max-bytes", 1024,
		"print at most this many bytes of the file")
	dumpBoot = pflag.Bool("dump-boot", false,
		"print the decoded boot sector")
)

func firstSector(disk *fat16.Disk) (uint32, error) {
	if *partition == "auto" {
		return mbr.FindFAT16(disk)
	}
	n, err := strconv.ParseUint(*partition, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid --partition %q: %w", *partition, err)
	}
	return uint32(n), nil
}

func listRoot(w io.Writer, vol *fat16.Volume) (string, error) {
	dir, err := vol.OpenDir(`\`)
	if err != nil {
		return "", err
	}
	defer dir.Close()

	var first string
	for {
		e, err := dir.Read()
		if err == io.EOF {
			return first, nil
		}
		if err != nil {
			return first, err
		}

		fmt.Fprintf(w, "  %-12s %10s", e.Name, humanize.Bytes(uint64(e.Size)))
		if e.IsDir() {
			fmt.Fprint(w, " [DIR]")
		}
		if e.IsReadOnly() {
			fmt.Fprint(w, " [RO]")
		}
		if e.IsHidden() {
			fmt.Fprint(w, " [HIDDEN]")
		}
		fmt.Fprintln(w)

		if first == "" && !e.IsDir() && e.Size > 0 {
			first = e.Name
		}
	}
}

func printable(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		switch {
		case c >= 32 && c <= 126, c == '\n', c == '\r', c == '\t':
			out[i] = c
		default:
			out[i] = '.'
		}
	}
	return out
}

func catFile(w io.Writer, vol *fat16.Volume, name string) error {
	f, err := vol.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(w, "File size: %s (%d bytes)\n\n", humanize.Bytes(uint64(f.Size())), f.Size())

	n := f.Size()
	if n > int64(*maxBytes) {
		n = int64(*maxBytes)
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	w.Write(printable(buf[:read]))
	if f.Size() > n {
		fmt.Fprintf(w, "\n... (showing the first %d bytes)\n", n)
	}

	fmt.Fprintln(w, "\nSeek:")
	for _, s := range []struct {
		label  string
		offset int64
		whence int
	}{
		{"end", 0, io.SeekEnd},
		{"start", 0, io.SeekStart},
		{"start+10", 10, io.SeekStart},
	} {
		pos, err := f.Seek(s.offset, s.whence)
		if err != nil {
			fmt.Fprintf(w, "  %-9s %v\n", s.label, err)
			continue
		}
		fmt.Fprintf(w, "  %-9s position = %d\n", s.label, pos)
	}
	return nil
}

func run(image string) (err error) {
	disk, err := fat16.OpenDisk(afero.NewOsFs(), image)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, disk.Close()) }()

	start, err := firstSector(disk)
	if err != nil {
		return err
	}

	vol, err := fat16.Mount(disk, start)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, vol.Close()) }()

	fmt.Printf("FAT16 volume %q at sector %d\n\n", vol.Label(), start)
	if *dumpBoot {
		pretty.Println(vol.BootSector())
		fmt.Println()
	}

	fmt.Println("Root directory:")
	first, err := listRoot(os.Stdout, vol)
	if err != nil {
		return err
	}

	name := *fileName
	if name == "" {
		name = first
	}
	if name == "" {
		fmt.Println("\nNo readable files in the root directory")
		return nil
	}

	fmt.Printf("\nReading %s\n", name)
	return catFile(os.Stdout, vol, name)
}

func main() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <fat16 image>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	// glog expects the standard flag set to be parsed.
	flag.CommandLine.Parse(nil)

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
