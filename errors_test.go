package compact

import (
	"errors"
	"strings"
	"testing"
)

func TestDataError_ErrorAndUnwrap(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		err := dataErrf([]byte{0xAA, 0xBB}, 1, ErrChecksumMismatch, "oops %d", 1)
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("err = %T, wanted *DataError", err)
		}
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("errors.Is(err, ErrChecksumMismatch) = false, wanted true")
		}
		s := err.Error()
		if !strings.Contains(s, "oops 1") || !strings.Contains(s, "checksum mismatch") || !strings.Contains(s, "(2) aabb") {
			t.Fatalf("err.Error() = %q, wanted message with oops 1/checksum mismatch/(2) aabb", s)
		}
	})

	t.Run("large data includes prefix and suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		s := dataErrf(data, 5, nil, "oops").Error()
		if !strings.Contains(s, "(200)") || !strings.Contains(s, "...") || !strings.Contains(s, "at offset 5") {
			t.Fatalf("err.Error() = %q, wanted message with (200), ... and offset", s)
		}
	})
}
