// Copyright 2009 The Go Authors. All rights reserved.
//
// Original is net/http/internal/chunked.go

// Package chunked frames HTTP bodies in aws-chunked encoding with a trailing
// integrity checksum chunk.
package chunked

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/trailsum/trailsum/api/checksum"
)

const maxLineLength = 4096 // assumed <= bufio.defaultBufSize

var (
	// ErrLineTooLong appears if chunk header exceeds maxLineLength.
	ErrLineTooLong = errors.New("chunked: header line too long")

	// ErrNoChunksSeparator appears if chunks not properly separated between
	// each other. They should be divided with \r\n bytes.
	ErrNoChunksSeparator = errors.New("chunked: no chunk separator")

	// ErrInvalidByteInChunkLength appears if chunk header has invalid encoding.
	ErrInvalidByteInChunkLength = errors.New("chunked: invalid byte in chunk length")

	// ErrMissingTrailer appears if the body declared a trailing checksum but
	// the trailing chunk carries none.
	ErrMissingTrailer = errors.New("chunked: missing trailing checksum chunk")

	errInvalidChunkEncoding = errors.New("chunked: invalid chunk encoding")
)

type readerState int

const (
	readChunkHeader readerState = iota
	readChunkPayload
	readChunkCRLF
	readTrailerChunk
	exit
)

// NewReader returns a reader that translates the data read from r out of
// aws-chunked format before returning it. trailerHeader names the checksum
// header expected in the trailing chunk (the value of x-amz-trailer); the
// named digest is recomputed over the decoded payload and compared against
// the trailing chunk before io.EOF is reported. An empty trailerHeader
// decodes plain chunked framing without trailer verification.
func NewReader(r io.ReadCloser, trailerHeader string) (io.ReadCloser, error) {
	alg, err := checksum.ParseHeader(trailerHeader)
	if err != nil {
		return nil, err
	}

	cr := &chunkReader{
		r: bufio.NewReader(r),
		// bufio.Reader can't be closed, thus left link to the original reader
		// to close it later.
		origReader: r,
		nextState:  readChunkHeader,
	}

	if alg != checksum.AlgorithmNone {
		if cr.sum, err = checksum.New(alg); err != nil {
			return nil, err
		}
	}

	return cr, nil
}

type chunkReader struct {
	r          *bufio.Reader
	origReader io.ReadCloser
	sum        *checksum.Checksum // nil when no trailer was declared
	n          uint64             // unread bytes in chunk
	err        error
	nextState  readerState
	lastChunk  bool
}

// Close implements [io.ReadCloser].
func (cr *chunkReader) Close() error {
	return cr.origReader.Close()
}

func (cr *chunkReader) beginChunk() {
	// chunk-size CRLF
	var line []byte
	line, cr.err = readChunkLine(cr.r)
	if cr.err != nil {
		return
	}

	cr.n, cr.err = parseHexUint(trimTrailingWhitespace(line))
	if cr.err != nil {
		return
	}

	if cr.n == 0 {
		cr.err = io.EOF
	}
}

// Read gets data from reader. Implements [io.ReadCloser].
func (cr *chunkReader) Read(b []uint8) (n int, err error) {
	for {
		switch cr.nextState {
		case readChunkHeader:
			cr.beginChunk()

			if cr.n == 0 && errors.Is(cr.err, io.EOF) {
				cr.nextState = readChunkCRLF
				cr.lastChunk = true
				continue
			}

			if cr.err != nil {
				return 0, cr.err
			}
			cr.nextState = readChunkPayload
		case readChunkPayload:
			// The incoming buffer is fulfilled.
			if len(b) == 0 {
				return n, nil
			}

			rbuf := b
			if uint64(len(rbuf)) > cr.n {
				rbuf = rbuf[:cr.n]
			}
			var n0 int
			n0, cr.err = cr.r.Read(rbuf)
			n += n0
			b = b[n0:]
			cr.n -= uint64(n0)

			if cr.sum != nil {
				// rbuf may contain payload and empty bytes, taking only payload
				_, _ = cr.sum.Write(rbuf[:n0])
			}

			// EOF inside a chunk means the body was truncated. A valid stream
			// always continues with at least a CRLF here, so the error is
			// terminal either way.
			if cr.err != nil {
				if errors.Is(cr.err, io.EOF) {
					cr.err = io.ErrUnexpectedEOF
				}
				return n, cr.err
			}

			// If we're at the end of a chunk.
			if cr.n == 0 {
				cr.nextState = readChunkCRLF
			}
		case readChunkCRLF:
			if !cr.lastChunk {
				if cr.err = readCRLF(cr.r); cr.err != nil {
					return 0, cr.err
				}
				cr.nextState = readChunkHeader
				continue
			}

			// The trailing chunk is followed either by a trailer line or
			// directly by the final CRLF. An I/O error from the peek is a
			// truncated body, not malformed framing.
			if err = peekCRLF(cr.r); err != nil && !errors.Is(err, errInvalidChunkEncoding) {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				cr.err = err
				return 0, cr.err
			}

			cr.nextState = readTrailerChunk
		case readTrailerChunk:
			if cr.err = cr.readTrailer(); cr.err != nil {
				return 0, cr.err
			}

			cr.nextState = exit
		case exit:
			return n, io.EOF
		}
	}
}

func (cr *chunkReader) readTrailer() error {
	if cr.sum == nil {
		return readCRLF(cr.r)
	}

	trailerAlg, trailerValue := parseChunkChecksum(cr.r)
	if trailerAlg == checksum.AlgorithmNone {
		return ErrMissingTrailer
	}

	if trailerAlg != cr.sum.Algorithm() {
		return fmt.Errorf("chunked: request header and trailing chunk checksum algorithm mismatch, %s vs %s",
			cr.sum.Algorithm(), trailerAlg)
	}

	actual, err := cr.sum.HeaderValue()
	if err != nil {
		return err
	}

	if string(trailerValue) != actual {
		return checksum.MismatchError{
			Algorithm: trailerAlg,
			Expected:  string(trailerValue),
			Actual:    actual,
		}
	}

	// Reading remaining CRLF.
	for range 2 {
		if err = readCRLF(cr.r); err != nil {
			return err
		}
	}

	return nil
}

func readCRLF(reader io.Reader) error {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(reader, buf[:2]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}

		return err
	}

	if string(buf[:]) != "\r\n" {
		return ErrNoChunksSeparator
	}

	return nil
}

func peekCRLF(reader *bufio.Reader) error {
	peeked, err := reader.Peek(2)
	if err != nil {
		return err
	}
	if string(peeked) != "\r\n" {
		return errInvalidChunkEncoding
	}
	return nil
}

// Read a line of bytes (up to \n) from b.
// Give up if the line exceeds maxLineLength.
// The returned bytes are owned by the bufio.Reader
// so they are only valid until the next bufio read.
func readChunkLine(b *bufio.Reader) ([]byte, error) {
	p, err := b.ReadSlice('\n')
	if err != nil {
		// We always know when EOF is coming.
		// If the caller asked for a line, there should be a line.
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		} else if errors.Is(err, bufio.ErrBufferFull) {
			err = ErrLineTooLong
		}
		return nil, err
	}
	if len(p) >= maxLineLength {
		return nil, ErrLineTooLong
	}

	return p, nil
}

func trimTrailingWhitespace(b []byte) []byte {
	for len(b) > 0 && isASCIISpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func parseHexUint(v []byte) (n uint64, err error) {
	for i, b := range v {
		switch {
		case '0' <= b && b <= '9':
			b = b - '0'
		case 'a' <= b && b <= 'f':
			b = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			b = b - 'A' + 10
		default:
			return 0, ErrInvalidByteInChunkLength
		}
		if i == 16 {
			return 0, errors.New("chunked: http chunk length too large")
		}
		n <<= 4
		n |= uint64(b)
	}
	return
}

// parseChunkChecksum reads the "name:base64value" trailer line. A malformed
// or absent line resolves to AlgorithmNone, the caller decides whether that
// is fatal.
func parseChunkChecksum(b *bufio.Reader) (checksum.Algorithm, []byte) {
	line, err := readChunkLine(b)
	if err != nil {
		return checksum.AlgorithmNone, nil
	}

	parts := bytes.SplitN(line, []byte(":"), 2)
	if len(parts) != 2 {
		return checksum.AlgorithmNone, nil
	}

	alg, err := checksum.ParseHeader(string(parts[0]))
	if err != nil {
		return checksum.AlgorithmNone, nil
	}

	value := trimTrailingWhitespace(parts[1])
	if _, err = base64.StdEncoding.DecodeString(string(value)); err != nil {
		return checksum.AlgorithmNone, nil
	}

	return alg, value
}
