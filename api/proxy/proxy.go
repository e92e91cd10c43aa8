// Package proxy implements the integrity gateway itself, a reverse proxy
// that verifies upload trailers and response checksums on the way through.
package proxy

import (
	goerrors "errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/trailsum/trailsum/api"
	"github.com/trailsum/trailsum/api/checksum"
	"github.com/trailsum/trailsum/api/chunked"
	s3errors "github.com/trailsum/trailsum/api/errors"
	"github.com/trailsum/trailsum/api/metrics"
)

type (
	// Config is the gateway configuration.
	Config struct {
		// Upstream is the origin the gateway forwards to.
		Upstream string

		Logger *zap.Logger
	}

	// Proxy forwards requests to the upstream, enforcing body integrity in
	// both directions.
	Proxy struct {
		rp       *httputil.ReverseProxy
		upstream *url.URL
		log      *zap.Logger
	}
)

// New builds a Proxy for cfg.
func New(cfg *Config) (*Proxy, error) {
	u, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, errors.Wrap(err, "invalid upstream")
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("upstream %q must be an absolute URL", cfg.Upstream)
	}

	p := &Proxy{
		upstream: u,
		log:      cfg.Logger,
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}

	return p, nil
}

// ServeHTTP implements [http.Handler]. Unknown algorithm names are rejected
// before anything is forwarded upstream, never coerced to a default.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if name := r.Header.Get(api.AmzSdkChecksumAlgorithm); name != "" {
		if _, err := checksum.Parse(name); err != nil {
			api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrInvalidChecksumAlgorithm))
			return
		}
	}

	if trailer := r.Header.Get(api.AmzTrailer); trailer != "" && hasAwsChunked(r.Header) {
		if _, err := checksum.ParseHeader(strings.ToLower(trailer)); err != nil {
			api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrInvalidChecksumAlgorithm))
			return
		}
	}

	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.upstream)
	pr.SetXForwarded()

	if err := p.rewriteUpload(pr.Out); err != nil {
		// surfaced on the first body read, lands in handleError
		pr.Out.Body = &errorBody{err: err}
		pr.Out.ContentLength = -1
	}
}

// rewriteUpload prepares the outgoing request body. Declared trailing
// checksums are decoded and verified at the gateway, requested checksum
// algorithms are computed while the body streams upstream and attached as a
// trailer.
func (p *Proxy) rewriteUpload(out *http.Request) error {
	if out.Body == nil || out.Body == http.NoBody {
		return nil
	}

	if trailer := out.Header.Get(api.AmzTrailer); trailer != "" && hasAwsChunked(out.Header) {
		return p.decodeChunkedUpload(out, strings.ToLower(trailer))
	}

	if name := out.Header.Get(api.AmzSdkChecksumAlgorithm); name != "" {
		return p.attachTrailer(out, name)
	}

	return nil
}

func (p *Proxy) decodeChunkedUpload(out *http.Request, trailer string) error {
	body, err := chunked.NewReader(out.Body, trailer)
	if err != nil {
		return err
	}

	out.Body = body
	out.Header.Del(api.AmzTrailer)
	stripAwsChunked(out.Header)

	// the upstream sees the decoded body
	out.ContentLength = -1
	out.Header.Del(api.ContentLength)
	if decoded := out.Header.Get(api.AmzDecodedContentLength); decoded != "" {
		if n, err := strconv.ParseInt(decoded, 10, 64); err == nil {
			out.ContentLength = n
			out.Header.Set(api.ContentLength, decoded)
		}
		out.Header.Del(api.AmzDecodedContentLength)
	}

	p.log.Debug("verifying upload trailer at gateway",
		zap.String("request_id", api.GetRequestID(out.Context())),
		zap.String("trailer", trailer))

	return nil
}

func (p *Proxy) attachTrailer(out *http.Request, name string) error {
	alg, err := checksum.Parse(name)
	if err != nil {
		return err
	}

	// a precomputed full-body checksum is forwarded untouched
	if out.Header.Get(alg.HeaderName()) != "" {
		return nil
	}

	sum, err := checksum.New(alg)
	if err != nil {
		return err
	}

	trailerName := http.CanonicalHeaderKey(sum.HeaderName())
	out.Trailer = http.Header{trailerName: nil}
	out.Body = &trailerBody{rc: out.Body, sum: sum, trailer: out.Trailer}

	// trailers require chunked framing
	out.ContentLength = -1
	out.Header.Del(api.ContentLength)

	p.log.Debug("attaching trailing checksum",
		zap.String("request_id", api.GetRequestID(out.Context())),
		zap.String("algorithm", alg.String()),
		zap.Int("trailer_len", sum.Size()))

	return nil
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	req := resp.Request
	if req == nil || !strings.EqualFold(req.Header.Get(api.AmzChecksumMode), api.ChecksumModeEnabled) {
		return nil
	}

	alg, _, ok := checksum.SelectCandidate(resp.Header)
	if !ok {
		metrics.ObserveVerification(checksum.AlgorithmNone, checksum.StatusSkipped)
		return nil
	}

	body, err := checksum.NewVerifyingReader(resp.Body, resp.Header)
	if err != nil {
		return err
	}

	resp.Body = &outcomeBody{rc: body, alg: alg, log: p.log}

	// A mismatch surfaces only once the body is drained. Dropping the length
	// forces EOF-framed delivery, so aborting then is visible to the client
	// instead of looking like a complete response.
	resp.ContentLength = -1
	resp.Header.Del(api.ContentLength)

	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	p.log.Error("request failed",
		zap.String("request_id", api.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))

	var (
		mismatch checksum.MismatchError
		unknown  checksum.UnknownAlgorithmError
	)

	switch {
	case goerrors.As(err, &mismatch):
		api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrBadDigest))
	case goerrors.As(err, &unknown):
		api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrInvalidChecksumAlgorithm))
	case goerrors.Is(err, chunked.ErrMissingTrailer),
		goerrors.Is(err, chunked.ErrNoChunksSeparator),
		goerrors.Is(err, chunked.ErrInvalidByteInChunkLength),
		goerrors.Is(err, chunked.ErrLineTooLong):
		api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrMalformedChunkedEncoding))
	case goerrors.Is(err, io.ErrUnexpectedEOF):
		api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrIncompleteBody))
	default:
		api.WriteErrorResponse(w, r, s3errors.GetAPIError(s3errors.ErrInternalError))
	}
}

// trailerBody streams the request body through the checksum and publishes
// the finalized value into the declared trailer at EOF.
type trailerBody struct {
	rc      io.ReadCloser
	sum     *checksum.Checksum
	trailer http.Header
	done    bool
}

// Read implements [io.ReadCloser].
func (tb *trailerBody) Read(p []byte) (int, error) {
	n, err := tb.rc.Read(p)
	if n > 0 {
		_, _ = tb.sum.Write(p[:n])
	}

	if err == io.EOF && !tb.done {
		tb.done = true

		value, ferr := tb.sum.HeaderValue()
		if ferr != nil {
			return n, ferr
		}
		tb.trailer.Set(tb.sum.HeaderName(), value)
	}

	return n, err
}

// Close implements [io.ReadCloser].
func (tb *trailerBody) Close() error {
	return tb.rc.Close()
}

// outcomeBody accounts the verification outcome of a response body once its
// final read resolves.
type outcomeBody struct {
	rc   io.ReadCloser
	alg  checksum.Algorithm
	log  *zap.Logger
	seen bool
}

// Read implements [io.ReadCloser].
func (ob *outcomeBody) Read(p []byte) (int, error) {
	n, err := ob.rc.Read(p)

	var mismatch checksum.MismatchError
	switch {
	case err == nil || ob.seen:
	case goerrors.As(err, &mismatch):
		ob.seen = true
		metrics.ObserveVerification(ob.alg, checksum.StatusMismatch)
		ob.log.Error("response checksum mismatch",
			zap.String("algorithm", mismatch.Algorithm.String()),
			zap.String("expected", mismatch.Expected),
			zap.String("actual", mismatch.Actual))
	case err == io.EOF:
		ob.seen = true
		metrics.ObserveVerification(ob.alg, checksum.StatusVerified)
	}

	return n, err
}

// Close implements [io.ReadCloser].
func (ob *outcomeBody) Close() error {
	return ob.rc.Close()
}

type errorBody struct {
	err error
}

func (eb *errorBody) Read([]byte) (int, error) { return 0, eb.err }
func (eb *errorBody) Close() error             { return nil }

func hasAwsChunked(hdr http.Header) bool {
	for _, token := range strings.Split(hdr.Get(api.ContentEncoding), ",") {
		if strings.EqualFold(strings.TrimSpace(token), api.AwsChunked) {
			return true
		}
	}
	return false
}

func stripAwsChunked(hdr http.Header) {
	var kept []string
	for _, token := range strings.Split(hdr.Get(api.ContentEncoding), ",") {
		if token = strings.TrimSpace(token); token == "" || strings.EqualFold(token, api.AwsChunked) {
			continue
		}
		kept = append(kept, token)
	}

	if len(kept) == 0 {
		hdr.Del(api.ContentEncoding)
		return
	}
	hdr.Set(api.ContentEncoding, strings.Join(kept, ","))
}
