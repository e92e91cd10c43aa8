package chunked

import (
	"fmt"
	"io"

	"github.com/trailsum/trailsum/api/checksum"
)

// Writer frames everything written to it as aws-chunked payload for w,
// computing the trailing checksum as the body streams through. Close writes
// the zero-length chunk, the trailing checksum chunk and the closing CRLFs.
//
// The trailer wire size is known from the algorithm alone, so callers can
// declare it (and the resulting content length) before the first byte of
// payload is produced.
type Writer struct {
	w      io.Writer
	sum    *checksum.Checksum
	closed bool
}

// NewWriter returns a Writer framing its input for w with a trailing alg
// checksum chunk.
func NewWriter(w io.Writer, alg checksum.Algorithm) (*Writer, error) {
	sum, err := checksum.New(alg)
	if err != nil {
		return nil, err
	}

	return &Writer{w: w, sum: sum}, nil
}

// TrailerHeader returns the checksum header name the trailing chunk will
// carry, the value callers advertise in x-amz-trailer.
func (cw *Writer) TrailerHeader() string {
	return cw.sum.HeaderName()
}

// TrailerLen returns the exact wire size of the trailing checksum line. It
// is available before any payload has been written.
func (cw *Writer) TrailerLen() int {
	return cw.sum.Size()
}

// Write emits p as a single chunk. Implements [io.Writer].
func (cw *Writer) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, checksum.ErrAlreadyFinalized
	}

	// Zero-length chunk means the end of the body, skip empty writes so the
	// terminal chunk stays unambiguous.
	if len(p) == 0 {
		return 0, nil
	}

	if _, err := fmt.Fprintf(cw.w, "%x\r\n", len(p)); err != nil {
		return 0, err
	}

	n, err := cw.w.Write(p)
	if err != nil {
		return n, err
	}
	// hash.Hash writes never fail
	_, _ = cw.sum.Write(p)

	if _, err := io.WriteString(cw.w, "\r\n"); err != nil {
		return n, err
	}

	return n, nil
}

// Close terminates the body with the zero-length chunk and the trailing
// checksum chunk. It does not close the underlying writer.
func (cw *Writer) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true

	name := cw.sum.HeaderName()

	value, err := cw.sum.HeaderValue()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cw.w, "0\r\n%s:%s\r\n\r\n\r\n", name, value)
	return err
}
