// Package metrics holds the Prometheus instruments of a scraper run.  All
// collectors are registered with the global registry; WriteTextfile dumps
// them for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsRetrievedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ttmusic_records_retrieved_total",
			Help: "Cumulative number of raw records handed to the normalizer.",
		})

	RecordsNormalizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ttmusic_records_normalized_total",
			Help: "Cumulative number of records that passed normalization.",
		})

	RecordsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ttmusic_records_failed_total",
			Help: "Cumulative number of records skipped after a validation failure.",
		})

	SourceFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttmusic_source_fallback_total",
			Help: "Number of times the live source fell back to mock data, by reason.",
		}, []string{"reason"})

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ttmusic_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run.",
		})
)

func init() {
	prometheus.MustRegister(
		RecordsRetrievedTotal,
		RecordsNormalizedTotal,
		RecordsFailedTotal,
		SourceFallbackTotal,
		LastRunTimestamp,
	)
}

// WriteTextfile writes every registered metric to path in the text
// exposition format.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
