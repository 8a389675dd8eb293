package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxConcurrentScrapes bounds parallel scrapes of the governance API.
const maxConcurrentScrapes = 4

// Handler serves the collector's registry in the OpenMetrics format, falling
// back to the Prometheus text format for scrapers that do not negotiate it.
// A collection error is logged and the remaining metrics are still served.
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle("GET "+cfg.Telemetry.Metrics.Path, collector.Handler())
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics:   true,
		MaxRequestsInFlight: maxConcurrentScrapes,
		ErrorHandling:       promhttp.ContinueOnError,
		ErrorLog:            slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	})
}
