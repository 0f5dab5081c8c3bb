// Package mmap provides read-only memory-mapped file access.
//
// Mapping a file avoids copying its contents through read buffers,
// which matters for snapshot files carrying large deflation bases: a
// restore can decode headers and blocks directly against the mapped
// pages.
//
//	m, err := mmap.Open("setup.snap")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile; access hints are no-ops
//
// # Thread Safety
//
// A Mapping is safe for concurrent reads. Close is idempotent, but
// callers must ensure no goroutine touches Bytes() after Close
// returns.
package mmap
