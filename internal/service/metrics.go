package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgersync_runs_total",
		Help: "Sync runs by terminal state",
	}, []string{"state"})

	syncRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledgersync_run_duration_seconds",
		Help:    "Duration of sync runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})

	syncItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgersync_items_total",
		Help: "Ledger items processed by outcome",
	}, []string{"result"})

	syncCategoriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgersync_categories_created_total",
		Help: "Storefront categories created from ledger groups",
	})

	syncStockDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgersync_stock_degraded_total",
		Help: "Runs that continued without stock data",
	})

	syncLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledgersync_last_success_timestamp_seconds",
		Help: "Unix time of the last completed sync run",
	})
)
