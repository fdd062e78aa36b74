package implementation

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves g in the Prometheus exposition format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func StartMetricsServer(
	addr string,
	g prometheus.Gatherer,
) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(g))

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() { _ = srv.ListenAndServe() }()

	return srv
}
