package httpmonitor

import (
	"net/http"
	"strconv"
	"time"

	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
)

type responseWrapper struct {
	http.ResponseWriter
	status int
}

func (respW *responseWrapper) WriteHeader(code int) {
	respW.status = code
	respW.ResponseWriter.WriteHeader(code)
}

// Wrap records request durations labeled by method, route name and status code.
// The route name is used instead of the raw path, which embeds room ids.
func Wrap(route string, f http.HandlerFunc) http.HandlerFunc {
	monitor := mon.GetInstance()
	summary := monitor.NewLabeledSummary(
		"http_request_duration_seconds",
		[]string{"method", "route", "code"},
		map[float64]float64{0.5: 0.01, 0.9: 0.01, 0.99: 0.001},
	)
	histogram := monitor.NewLabeledHistogram(
		"http_request_buckets_seconds",
		[]string{"method", "route", "code"},
		[]float64{0.05, 0.1, 0.5, 1, 2, 5},
	)

	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		respW := responseWrapper{w, http.StatusOK}
		f(&respW, req)
		duration := float64(time.Since(start)) / float64(time.Second)

		code := strconv.Itoa(respW.status)
		summary.WithLabelValues(req.Method, route, code).Observe(duration)
		histogram.WithLabelValues(req.Method, route, code).Observe(duration)
	}
}
