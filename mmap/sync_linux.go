package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func fdatasync(f *os.File, _ []byte) error {
	return unix.Fdatasync(int(f.Fd()))
}
