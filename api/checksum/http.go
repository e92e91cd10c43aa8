package checksum

import (
	"encoding/base64"
	"io"
	"net/http"
)

// HeaderName returns the wire header this checksum publishes to.
func (c *Checksum) HeaderName() string {
	return c.alg.HeaderName()
}

// HeaderValue finalizes the digest and returns it base64-encoded, ready for
// use as a header or trailer value. Standard base64 of a fixed-length digest
// is always a valid header value, so the only possible failure is reuse of an
// already finalized checksum.
func (c *Checksum) HeaderValue() (string, error) {
	sum, err := c.Finalize()
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sum), nil
}

// Headers finalizes the digest and returns it as a header collection with a
// single entry keyed by HeaderName.
func (c *Checksum) Headers() (http.Header, error) {
	value, err := c.HeaderValue()
	if err != nil {
		return nil, err
	}

	hdr := make(http.Header, 1)
	hdr.Set(c.HeaderName(), value)

	return hdr, nil
}

// Size returns the exact number of bytes the "name:base64value" trailer line
// occupies on the wire. It depends only on the algorithm's fixed digest
// length, so trailer budget can be declared before any body bytes have been
// hashed. Size never finalizes the checksum.
//
// HTTP trailer names and values may be separated by either a single colon or
// a colon and a whitespace, a single colon is emitted here.
func (c *Checksum) Size() int {
	return len(c.alg.HeaderName()) + len(":") + base64.StdEncoding.EncodedLen(c.alg.RawSize())
}

// NewReader returns a reader feeding everything read from r into sum. The
// caller finalizes sum once the stream is drained, an abandoned stream is
// simply dropped without finalizing.
func NewReader(r io.Reader, sum *Checksum) io.Reader {
	return io.TeeReader(r, sum)
}
