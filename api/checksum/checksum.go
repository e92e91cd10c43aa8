// Package checksum computes streaming content digests for HTTP bodies and
// renders them as protocol-correct checksum headers and trailers.
package checksum

import (
	"hash"
)

// Checksum is a single-use streaming digest over one request or response
// body. It owns one digest engine, is written to by exactly one goroutine at
// a time, and becomes terminal once Finalize is called.
//
// Instances may be handed between goroutines, an upload commonly streams on
// a different goroutine than the one that created the checksum.
type Checksum struct {
	alg  Algorithm
	h    hash.Hash
	done bool
}

// New returns a fresh Checksum wrapping a new digest engine for alg.
func New(alg Algorithm) (*Checksum, error) {
	h := alg.newHash()
	if h == nil {
		return nil, UnknownAlgorithmError{Name: alg.String()}
	}

	return &Checksum{alg: alg, h: h}, nil
}

// Algorithm returns the algorithm this checksum computes.
func (c *Checksum) Algorithm() Algorithm {
	return c.alg
}

// Write feeds the next portion of the body into the digest. The final digest
// does not depend on how the body is split across calls. Implements
// [io.Writer].
func (c *Checksum) Write(p []byte) (int, error) {
	if c.done {
		return 0, ErrAlreadyFinalized
	}

	return c.h.Write(p)
}

// Finalize consumes the checksum and returns the raw fixed-length digest.
// Any use of the instance afterwards fails with ErrAlreadyFinalized.
func (c *Checksum) Finalize() ([]byte, error) {
	if c.done {
		return nil, ErrAlreadyFinalized
	}
	c.done = true

	return c.h.Sum(nil), nil
}

// RawSize returns the fixed byte length of the raw digest, see
// [Algorithm.RawSize].
func (c *Checksum) RawSize() int {
	return c.alg.RawSize()
}
