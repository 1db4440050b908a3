package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_sync_ticks_total",
			Help: "Sync ticks by outcome (ok, error, skipped).",
		},
		[]string{"result"},
	)

	syncFilesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backoffice_sync_files_ingested_total",
			Help: "Drive files ingested by the sync job.",
		},
	)

	syncIngestFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backoffice_sync_ingest_failures_total",
			Help: "Files whose sync ingestion failed and will be retried.",
		},
	)
)
