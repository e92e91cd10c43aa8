// Package metrics collects Prometheus statistics for the integrity gateway.
package metrics

import (
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trailsum/trailsum/api/checksum"
)

type (
	// HTTPStats holds statistics information about
	// HTTP requests made by all clients.
	HTTPStats struct {
		currentRequests int64

		totalInputBytes  uint64
		totalOutputBytes uint64
	}

	readCounter struct {
		io.ReadCloser
		countBytes uint64
	}

	writeCounter struct {
		http.ResponseWriter
		countBytes uint64
	}

	responseWrapper struct {
		sync.Once
		http.ResponseWriter

		statusCode int
		startTime  time.Time
	}
)

var (
	httpStatsMetric = new(HTTPStats)

	httpRequestsDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trailsum_request_seconds",
			Help:    "Time taken by requests served by current gateway instance",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	verificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailsum_verifications_total",
			Help: "Checksum verification outcomes by algorithm",
		},
		[]string{"algorithm", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsDuration)
	prometheus.MustRegister(verificationOutcomes)
	prometheus.MustRegister(httpStatsMetric)
}

// ObserveVerification accounts one finished checksum verification.
func ObserveVerification(alg checksum.Algorithm, status checksum.Status) {
	verificationOutcomes.WithLabelValues(alg.String(), status.String()).Inc()
}

// Describe implements [prometheus.Collector].
func (s *HTTPStats) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(s, ch)
}

// Collect implements [prometheus.Collector].
func (s *HTTPStats) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("trailsum", "requests", "current"),
			"Total number of running requests in current gateway instance",
			nil, nil),
		prometheus.GaugeValue,
		float64(atomic.LoadInt64(&s.currentRequests)),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("trailsum", "rx", "bytes_total"),
			"Total number of bytes received by current gateway instance",
			nil, nil),
		prometheus.CounterValue,
		float64(atomic.LoadUint64(&s.totalInputBytes)),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("trailsum", "tx", "bytes_total"),
			"Total number of bytes sent by current gateway instance",
			nil, nil),
		prometheus.CounterValue,
		float64(atomic.LoadUint64(&s.totalOutputBytes)),
	)
}

// APIStats wraps an http handler with basic statistics collection.
func APIStats(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&httpStatsMetric.currentRequests, 1)
		defer atomic.AddInt64(&httpStatsMetric.currentRequests, -1)

		in := &readCounter{ReadCloser: r.Body}
		out := &writeCounter{ResponseWriter: w}

		r.Body = in

		statsWriter := &responseWrapper{
			ResponseWriter: out,
			startTime:      time.Now(),
		}

		h.ServeHTTP(statsWriter, r)

		// Time duration in secs since the call started.
		// We don't need to do nanosecond precision here
		// simply for the fact that it is not human readable.
		httpRequestsDuration.Observe(time.Since(statsWriter.startTime).Seconds())

		atomic.AddUint64(&httpStatsMetric.totalInputBytes, in.countBytes)
		atomic.AddUint64(&httpStatsMetric.totalOutputBytes, out.countBytes)
	})
}

func (w *responseWrapper) WriteHeader(code int) {
	w.Do(func() {
		w.statusCode = code
		w.ResponseWriter.WriteHeader(code)
	})
}

func (r *readCounter) Read(p []byte) (n int, err error) {
	n, err = r.ReadCloser.Read(p)
	atomic.AddUint64(&r.countBytes, uint64(n))

	return n, err
}

func (w *writeCounter) Write(p []byte) (n int, err error) {
	n, err = w.ResponseWriter.Write(p)
	atomic.AddUint64(&w.countBytes, uint64(n))

	return n, err
}
