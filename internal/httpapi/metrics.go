package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hydrantmap/internal/hydrant"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(svc *hydrant.Service, logger hydrant.Logger) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hydrantmap_http_requests_total",
			Help: "HTTP requests handled",
		}, []string{"code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hydrantmap_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	m.registry.MustRegister(m.requests, m.duration, newInventoryCollector(svc, logger))
	return m
}

func (m *metrics) observe(method, code string, d time.Duration) {
	m.requests.With(prometheus.Labels{"code": code, "method": method}).Inc()
	m.duration.With(prometheus.Labels{"method": method}).Observe(d.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// inventoryCollector reports the live collection and snapshot state at
// scrape time. The documents are small, so reading them per scrape is fine.
type inventoryCollector struct {
	svc    *hydrant.Service
	logger hydrant.Logger

	hydrants      *prometheus.Desc
	snapshots     *prometheus.Desc
	snapshotBytes *prometheus.Desc
	corrupt       *prometheus.Desc
	newest        *prometheus.Desc
}

func newInventoryCollector(svc *hydrant.Service, logger hydrant.Logger) *inventoryCollector {
	return &inventoryCollector{
		svc:    svc,
		logger: logger,
		hydrants: prometheus.NewDesc("hydrantmap_hydrants",
			"Hydrants in the live collection", nil, nil),
		snapshots: prometheus.NewDesc("hydrantmap_snapshots",
			"Retained snapshots", nil, nil),
		snapshotBytes: prometheus.NewDesc("hydrantmap_snapshot_bytes",
			"Disk space used by snapshots and image archives", nil, nil),
		corrupt: prometheus.NewDesc("hydrantmap_snapshots_corrupt",
			"Retained snapshots that cannot be decoded", nil, nil),
		newest: prometheus.NewDesc("hydrantmap_snapshot_newest_timestamp_seconds",
			"Creation time of the newest snapshot", nil, nil),
	}
}

func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hydrants
	ch <- c.snapshots
	ch <- c.snapshotBytes
	ch <- c.corrupt
	ch <- c.newest
}

func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	if hydrants, err := c.svc.ListHydrants(); err != nil {
		c.logger.Warn("metrics: reading live collection failed", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.hydrants, prometheus.GaugeValue, float64(len(hydrants)))
	}

	snapshots, err := c.svc.ListSnapshots()
	if err != nil {
		c.logger.Warn("metrics: listing snapshots failed", "error", err)
		return
	}
	var size int64
	corrupt := 0
	for _, info := range snapshots {
		size += info.Size + info.ImagesSize
		if info.Corrupt {
			corrupt++
		}
	}
	ch <- prometheus.MustNewConstMetric(c.snapshots, prometheus.GaugeValue, float64(len(snapshots)))
	ch <- prometheus.MustNewConstMetric(c.snapshotBytes, prometheus.GaugeValue, float64(size))
	ch <- prometheus.MustNewConstMetric(c.corrupt, prometheus.GaugeValue, float64(corrupt))
	if len(snapshots) > 0 && !snapshots[0].Corrupt {
		ch <- prometheus.MustNewConstMetric(c.newest, prometheus.GaugeValue,
			float64(snapshots[0].Meta.Created.Unix()))
	}
}
