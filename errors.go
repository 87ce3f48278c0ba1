package compact

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCompact is returned when exporting a region some part of which
	// has spilled into free storage.
	ErrNotCompact = errors.New("region is not compact")

	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrUnsupportedVersion = errors.New("unsupported region version")
)

// DataError describes malformed region data.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	var snippet string
	if n <= prefixLen+suffixLen {
		snippet = fmt.Sprintf("(%d) %x", n, e.Data)
	} else {
		snippet = fmt.Sprintf("(%d) %x...%x", n, e.Data[:prefixLen], e.Data[n-suffixLen:])
	}
	if e.Err != nil {
		return fmt.Sprintf("%s at offset %d: %v: %s", e.Msg, e.Off, e.Err, snippet)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Msg, e.Off, snippet)
}
