package interceptor

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/chnu/award-monitoring-system/pkg/observability"
)

const (
	MetricHTTPServerRequests       = "http.server.requests"
	MetricHTTPServerRequestsActive = "http.server.requests.active"
)

// HTTPMetrics times every request into http.server.requests, tagged with the
// matched route template rather than the raw path. Panics are logged and
// answered with a 500 after the request is recorded.
func HTTPMetrics(meter observability.Meter, log observability.Logger) (func(http.Handler) http.Handler, error) {
	timer, err := meter.Timer(MetricHTTPServerRequests, observability.MetricOpt{
		Help:      "Duration of HTTP server requests",
		LabelKeys: []string{"method", "uri", "status", "outcome"},
	})
	if err != nil {
		return nil, err
	}

	active, err := meter.Gauge(MetricHTTPServerRequestsActive, observability.MetricOpt{
		Help: "HTTP server requests in flight",
	})
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active.Add(1)
			sample := observability.StartSample()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				p := recover()
				if p != nil && p != http.ErrAbortHandler {
					log.Error("panic recovered",
						observability.String("panic", fmt.Sprintf("%v", p)),
						observability.String("method", r.Method),
						observability.String("path", r.URL.Path),
					)
					if !rec.wroteHeader {
						rec.WriteHeader(http.StatusInternalServerError)
					}
					rec.status = http.StatusInternalServerError
				}

				active.Add(-1)
				sample.Stop(timer, requestLabels(r, rec.status)...)

				if p == http.ErrAbortHandler {
					panic(p)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}, nil
}

func requestLabels(r *http.Request, status int) []observability.Label {
	return []observability.Label{
		{Key: "method", Value: r.Method},
		{Key: "uri", Value: routeTemplate(r, status)},
		{Key: "status", Value: strconv.Itoa(status)},
		{Key: "outcome", Value: outcome(status)},
	}
}

// routeTemplate strips the method and host from the pattern ServeMux matched.
func routeTemplate(r *http.Request, status int) string {
	if i := strings.Index(r.Pattern, "/"); i >= 0 {
		return r.Pattern[i:]
	}
	if status == http.StatusNotFound {
		return "NOT_FOUND"
	}
	return "UNKNOWN"
}

func outcome(status int) string {
	switch {
	case status >= 500:
		return "SERVER_ERROR"
	case status >= 400:
		return "CLIENT_ERROR"
	case status >= 300:
		return "REDIRECTION"
	case status >= 200:
		return "SUCCESS"
	default:
		return "INFORMATIONAL"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
