package checksum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrailerSize(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		size int
	}{
		{alg: AlgorithmCRC32, size: 29},
		{alg: AlgorithmCRC32C, size: 30},
		{alg: AlgorithmCRC64NVMe, size: 37},
		{alg: AlgorithmSHA1, size: 48},
		{alg: AlgorithmSHA256, size: 66},
		{alg: AlgorithmMD5, size: 36},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			sum, err := New(tt.alg)
			require.NoError(t, err)

			// before any body bytes are hashed
			require.Equal(t, tt.size, sum.Size())

			_, err = sum.Write([]byte("body content must not change the trailer size"))
			require.NoError(t, err)
			require.Equal(t, tt.size, sum.Size())

			// Size does not finalize, the digest is still usable.
			value, err := sum.HeaderValue()
			require.NoError(t, err)
			require.Equal(t, tt.size, len(sum.HeaderName())+len(":")+len(value))
		})
	}
}

func TestHeaders(t *testing.T) {
	sum, err := New(AlgorithmCRC32C)
	require.NoError(t, err)

	_, err = sum.Write([]byte("hello world"))
	require.NoError(t, err)

	hdr, err := sum.Headers()
	require.NoError(t, err)
	require.Len(t, hdr, 1)
	require.NotEmpty(t, hdr.Get(HeaderCRC32C))
}

func TestNewReader(t *testing.T) {
	sum, err := New(AlgorithmSHA256)
	require.NoError(t, err)

	body := "streamed while hashing"
	r := NewReader(strings.NewReader(body), sum)

	buf := make([]byte, 5)
	var read strings.Builder
	for {
		n, err := r.Read(buf)
		read.Write(buf[:n])
		if err != nil {
			break
		}
	}
	require.Equal(t, body, read.String())

	direct, err := New(AlgorithmSHA256)
	require.NoError(t, err)
	_, err = direct.Write([]byte(body))
	require.NoError(t, err)

	expected, err := direct.HeaderValue()
	require.NoError(t, err)
	actual, err := sum.HeaderValue()
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}
