package compact

import "io"

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func appendRaw(buf []byte, chunk []byte) []byte {
	off := len(buf)
	buf = ensureCapacity(buf, off+len(chunk))[:off+len(chunk)]
	copy(buf[off:], chunk)
	return buf
}

// bytesBuilder is an io.Writer appending to Buf, used to feed encoders that
// write into caller-provided buffers.
type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = append(ensureCapacity(bb.Buf, len(bb.Buf)+1), v)
	return nil
}
