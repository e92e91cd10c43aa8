package checksum

import (
	"io"
	"net/http"
)

// Status is the terminal state of one response verification.
type Status int

const (
	// StatusSkipped means none of the priority-ordered checksum headers
	// were present. Verification is opt-in per request, so this is not an
	// error.
	StatusSkipped Status = iota

	// StatusVerified means the computed value equals the header value.
	StatusVerified

	// StatusMismatch means the header was present but disagreed with the
	// received body.
	StatusMismatch
)

func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusMismatch:
		return "mismatch"
	}
	return "skipped"
}

// SelectCandidate scans hdr in PriorityOrder and returns the first algorithm
// whose checksum header is present together with the header's literal value.
// It reports false if no candidate header exists.
func SelectCandidate(hdr http.Header) (Algorithm, string, bool) {
	for _, alg := range PriorityOrder {
		if value := hdr.Get(alg.HeaderName()); value != "" {
			return alg, value, true
		}
	}

	return AlgorithmNone, "", false
}

// Verify recomputes the highest-priority checksum advertised in hdr over
// body and compares it against the header's literal value. Comparison is
// byte-for-byte on the base64 strings, so encoding anomalies are caught too.
//
// A mismatch is returned both as StatusMismatch and as a MismatchError, it
// must not be silently ignored. Lower-priority digests are never computed.
func Verify(hdr http.Header, body io.Reader) (Status, error) {
	alg, expected, ok := SelectCandidate(hdr)
	if !ok {
		return StatusSkipped, nil
	}

	sum, err := New(alg)
	if err != nil {
		return StatusSkipped, err
	}

	if _, err := io.Copy(sum, body); err != nil {
		return StatusSkipped, err
	}

	actual, err := sum.HeaderValue()
	if err != nil {
		return StatusSkipped, err
	}

	if actual != expected {
		return StatusMismatch, MismatchError{Algorithm: alg, Expected: expected, Actual: actual}
	}

	return StatusVerified, nil
}

type verifyingReader struct {
	rc       io.ReadCloser
	sum      *Checksum
	expected string
	checked  bool
}

// NewVerifyingReader wraps body so the highest-priority checksum advertised
// in hdr is recomputed while the body streams through. When the body is
// drained the computed value is compared against the header, a disagreement
// turns the final Read into a MismatchError instead of io.EOF.
//
// If no candidate header is present, body is returned unchanged.
func NewVerifyingReader(body io.ReadCloser, hdr http.Header) (io.ReadCloser, error) {
	alg, expected, ok := SelectCandidate(hdr)
	if !ok {
		return body, nil
	}

	sum, err := New(alg)
	if err != nil {
		return nil, err
	}

	return &verifyingReader{rc: body, sum: sum, expected: expected}, nil
}

// Read implements [io.ReadCloser].
func (vr *verifyingReader) Read(p []byte) (int, error) {
	n, err := vr.rc.Read(p)
	if n > 0 {
		// hash.Hash writes never fail
		_, _ = vr.sum.Write(p[:n])
	}

	if err == io.EOF && !vr.checked {
		vr.checked = true

		actual, ferr := vr.sum.HeaderValue()
		if ferr != nil {
			return n, ferr
		}

		if actual != vr.expected {
			return n, MismatchError{
				Algorithm: vr.sum.Algorithm(),
				Expected:  vr.expected,
				Actual:    actual,
			}
		}
	}

	return n, err
}

// Close implements [io.ReadCloser].
func (vr *verifyingReader) Close() error {
	return vr.rc.Close()
}
