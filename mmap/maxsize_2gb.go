//go:build 386 || arm || ppc

package mmap

// MaxSize is the largest mapping Map accepts on this architecture.
const MaxSize = 0x7FFFFFFF // 2GB
