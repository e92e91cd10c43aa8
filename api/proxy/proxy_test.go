package proxy

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/trailsum/trailsum/api"
	"github.com/trailsum/trailsum/api/checksum"
	"github.com/trailsum/trailsum/api/chunked"
)

func newGateway(t *testing.T, upstream http.Handler) *httptest.Server {
	origin := httptest.NewServer(upstream)
	t.Cleanup(origin.Close)

	p, err := New(&Config{
		Upstream: origin.URL,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	gw := httptest.NewServer(p)
	t.Cleanup(gw.Close)

	return gw
}

func checksumOf(t *testing.T, alg checksum.Algorithm, body string) string {
	sum, err := checksum.New(alg)
	require.NoError(t, err)
	_, err = sum.Write([]byte(body))
	require.NoError(t, err)

	value, err := sum.HeaderValue()
	require.NoError(t, err)
	return value
}

func TestNewRejectsRelativeUpstream(t *testing.T) {
	_, err := New(&Config{Upstream: "not-a-url", Logger: zaptest.NewLogger(t)})
	require.Error(t, err)
}

func TestUploadAttachesTrailer(t *testing.T) {
	const payload = "object body streamed through the gateway"

	var gotBody, gotTrailer string
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		gotBody = string(body)
		// request trailers surface only after the body is consumed
		gotTrailer = r.Trailer.Get(checksum.HeaderSHA256)
		w.WriteHeader(http.StatusOK)
	}))

	req, err := http.NewRequest(http.MethodPut, gw.URL+"/bucket/key", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(api.AmzSdkChecksumAlgorithm, "SHA256")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, payload, gotBody)
	require.Equal(t, checksumOf(t, checksum.AlgorithmSHA256, payload), gotTrailer)
}

func TestUploadUnknownAlgorithm(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach upstream")
	}))

	req, err := http.NewRequest(http.MethodPut, gw.URL+"/bucket/key", strings.NewReader("body"))
	require.NoError(t, err)
	req.Header.Set(api.AmzSdkChecksumAlgorithm, "sha256") // lowercase is rejected

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "InvalidRequest")
}

func encodeUpload(t *testing.T, alg checksum.Algorithm, payload string) []byte {
	var buf bytes.Buffer
	cw, err := chunked.NewWriter(&buf, alg)
	require.NoError(t, err)
	_, err = cw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, cw.Close())
	return buf.Bytes()
}

func TestUploadDecodesChunkedBody(t *testing.T) {
	const payload = "chunk framed upload payload"

	var gotBody string
	var gotHeader http.Header
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		gotBody = string(body)
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))

	encoded := encodeUpload(t, checksum.AlgorithmCRC32C, payload)

	req, err := http.NewRequest(http.MethodPut, gw.URL+"/bucket/key", bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set(api.ContentEncoding, api.AwsChunked)
	req.Header.Set(api.AmzTrailer, checksum.HeaderCRC32C)
	req.Header.Set(api.AmzDecodedContentLength, strconv.Itoa(len(payload)))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, payload, gotBody)

	// framing headers must not leak upstream
	require.Empty(t, gotHeader.Get(api.AmzTrailer))
	require.Empty(t, gotHeader.Get(api.ContentEncoding))
	require.Empty(t, gotHeader.Get(api.AmzDecodedContentLength))
}

func TestUploadRejectsCorruptTrailer(t *testing.T) {
	const payload = "chunk framed upload payload"

	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the gateway aborts mid-body, draining here just unblocks it
		_, _ = io.Copy(io.Discard, r.Body)
	}))

	encoded := bytes.Replace(
		encodeUpload(t, checksum.AlgorithmSHA1, payload),
		[]byte("framed"), []byte("forged"), 1)

	req, err := http.NewRequest(http.MethodPut, gw.URL+"/bucket/key", bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set(api.ContentEncoding, api.AwsChunked)
	req.Header.Set(api.AmzTrailer, checksum.HeaderSHA1)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "BadDigest")
}

func TestUploadTruncatedChunkedBody(t *testing.T) {
	const payload = "chunk framed upload payload"

	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))

	// client disconnects mid-chunk, before the trailing checksum chunk
	encoded := encodeUpload(t, checksum.AlgorithmCRC32, payload)
	truncated := encoded[:len(encoded)/2]

	req, err := http.NewRequest(http.MethodPut, gw.URL+"/bucket/key", bytes.NewReader(truncated))
	require.NoError(t, err)
	req.Header.Set(api.ContentEncoding, api.AwsChunked)
	req.Header.Set(api.AmzTrailer, checksum.HeaderCRC32)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "IncompleteBody")
}

func TestDownloadVerified(t *testing.T) {
	const payload = "object content served by the origin"

	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(checksum.HeaderCRC32C, checksumOf(t, checksum.AlgorithmCRC32C, payload))
		_, _ = io.WriteString(w, payload)
	}))

	req, err := http.NewRequest(http.MethodGet, gw.URL+"/bucket/key", nil)
	require.NoError(t, err)
	req.Header.Set(api.AmzChecksumMode, api.ChecksumModeEnabled)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, payload, string(body))
}

func TestDownloadMismatchAbortsTransfer(t *testing.T) {
	const payload = "object content served by the origin"

	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(checksum.HeaderCRC32C, checksumOf(t, checksum.AlgorithmCRC32C, "tampered content"))
		_, _ = io.WriteString(w, payload)
	}))

	req, err := http.NewRequest(http.MethodGet, gw.URL+"/bucket/key", nil)
	require.NoError(t, err)
	req.Header.Set(api.AmzChecksumMode, api.ChecksumModeEnabled)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = io.ReadAll(resp.Body)
	require.Error(t, err)
}

func TestDownloadWithoutModePassesThrough(t *testing.T) {
	const payload = "object content served by the origin"

	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// bogus header value is ignored without x-amz-checksum-mode
		w.Header().Set(checksum.HeaderSHA256, "bm90IGEgcmVhbCBkaWdlc3Q=")
		_, _ = io.WriteString(w, payload)
	}))

	resp, err := http.Get(gw.URL + "/bucket/key")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, payload, string(body))
}
