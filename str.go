package compact

import (
	"strings"
	"unicode/utf8"
	"unsafe"
)

// String is a growable buffer of bytes that always hold valid UTF-8.
//
// Go strings can carry arbitrary bytes, so the UTF-8 invariant is checked
// where text enters the buffer; reading trusts it.
type String struct {
	chars Vec[byte]
}

func NewString() String {
	return String{}
}

func NewStringIn(id AllocatorID) String {
	return String{NewVecIn[byte](id)}
}

// StringFrom returns a String holding a copy of s.
func StringFrom(s string) String {
	var str String
	str.PushStr(s)
	return str
}

// PushStr appends s. Invalid UTF-8 is a programming error.
func (s *String) PushStr(str string) {
	if !utf8.ValidString(str) {
		panic("compact: PushStr with invalid UTF-8")
	}
	s.chars.ExtendFromSlice(unsafeBytesFromString(str))
}

func (s *String) Len() int {
	return s.chars.Len()
}

func (s *String) IsEmpty() bool {
	return s.chars.IsEmpty()
}

// Str returns the contents without copying. The result aliases the buffer and
// must not be used after the next PushStr or Release.
func (s *String) Str() string {
	b := s.chars.Slice()
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// String returns a copy of the contents.
func (s *String) String() string {
	return strings.Clone(s.Str())
}

func (s *String) Clone() String {
	return Decompact(s)
}

func (s *String) Release() {
	s.chars.Release()
}

func (s *String) IsStillCompact() bool {
	return s.chars.IsStillCompact()
}

func (s *String) DynamicSizeBytes() int {
	return s.chars.DynamicSizeBytes()
}

func (s *String) CompactTo(dest, dynamic unsafe.Pointer) {
	s.chars.CompactTo(unsafe.Pointer(&(*String)(dest).chars), dynamic)
}

func (s *String) DecompactTo(dest unsafe.Pointer) {
	*(*String)(dest) = String{Decompact(&s.chars)}
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
