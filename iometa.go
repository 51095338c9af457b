package main

import "io"

// iometa.go - small io helpers for the object writer.
//
// countingWriter is adapted from davejbax/pixie's internal/iometa
// CountingWriter: the object writer needs to know exactly how many bytes
// it has emitted so far in order to compute section alignment padding
// without a second buffering pass.
type countingWriter struct {
	w       io.Writer
	written int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.written += int64(n)
	return n, err
}

// WritePadding writes n zero bytes, used to align a section to its
// required file offset.
func (c *countingWriter) WritePadding(n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := c.Write(make([]byte, n))
	return err
}
