package checksum

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

var allAlgorithms = []Algorithm{
	AlgorithmCRC32, AlgorithmCRC32C, AlgorithmCRC64NVMe,
	AlgorithmSHA1, AlgorithmSHA256, AlgorithmMD5,
}

func TestEmptyInputDigests(t *testing.T) {
	tests := []struct {
		alg    Algorithm
		rawHex string
	}{
		// CRC digests of empty input are all zeroes.
		{alg: AlgorithmCRC32, rawHex: "00000000"},
		{alg: AlgorithmCRC32C, rawHex: "00000000"},
		{alg: AlgorithmCRC64NVMe, rawHex: "0000000000000000"},
		{alg: AlgorithmSHA1, rawHex: "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{alg: AlgorithmSHA256, rawHex: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{alg: AlgorithmMD5, rawHex: "d41d8cd98f00b204e9800998ecf8427e"},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			raw, err := hex.DecodeString(tt.rawHex)
			require.NoError(t, err)

			sum, err := New(tt.alg)
			require.NoError(t, err)

			value, err := sum.HeaderValue()
			require.NoError(t, err)
			require.Equal(t, base64.StdEncoding.EncodeToString(raw), value)
		})
	}
}

func TestChunkSplitInvariance(t *testing.T) {
	payload := []byte("integrity is chunking-independent")

	for _, alg := range allAlgorithms {
		t.Run(alg.String(), func(t *testing.T) {
			whole, err := New(alg)
			require.NoError(t, err)
			_, err = whole.Write(payload)
			require.NoError(t, err)

			split, err := New(alg)
			require.NoError(t, err)
			for _, b := range payload {
				_, err = split.Write([]byte{b})
				require.NoError(t, err)
			}

			expected, err := whole.Finalize()
			require.NoError(t, err)
			actual, err := split.Finalize()
			require.NoError(t, err)
			require.Equal(t, expected, actual)
			require.Len(t, expected, alg.RawSize())
		})
	}
}

func TestFinalizeConsumes(t *testing.T) {
	sum, err := New(AlgorithmSHA256)
	require.NoError(t, err)

	_, err = sum.Write([]byte("payload"))
	require.NoError(t, err)

	_, err = sum.Finalize()
	require.NoError(t, err)

	_, err = sum.Write([]byte("more"))
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = sum.Finalize()
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = sum.HeaderValue()
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}
