package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// Database gauges
	ServiceGamesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hearth_service_games_total",
		Help: "Number of service games stored in the local database, per service.",
	}, []string{"service"})

	// Library load performance
	LibraryLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hearth_library_load_duration_seconds",
		Help:    "Duration of service library loads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	LibraryLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_library_loads_total",
		Help: "Total number of service library loads.",
	}, []string{"service", "status"}) // status: ok, failed

	// Media cache
	MediaDownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_media_downloads_total",
		Help: "Total number of media files fetched for service games.",
	}, []string{"service", "media", "status"}) // status: downloaded, cached, failed
)

// UpdateDBMetrics refreshes gauges that reflect the current state of the
// local database.
func UpdateDBMetrics(database *sql.DB) error {
	rows, err := database.Query("SELECT service, COUNT(*) FROM service_games GROUP BY service")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var service string
		var total int64
		if err := rows.Scan(&service, &total); err != nil {
			return err
		}
		ServiceGamesTotal.WithLabelValues(service).Set(float64(total))
	}
	return rows.Err()
}

// RecordLibraryLoadDuration records the time taken to load one service
// library.
func RecordLibraryLoadDuration(service string, start time.Time) {
	LibraryLoadDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// Serve exposes the Prometheus endpoint on address. An empty address
// disables it.
func Serve(address string) {
	if address == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(address, mux); err != nil {
			logrus.Errorf("%+v", err)
		}
	}()
}
