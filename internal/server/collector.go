package server

import (
	"strings"

	"solix2prom/internal/core/domain"
	"solix2prom/internal/core/measure"
	"solix2prom/internal/core/snapshot"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	siteLabels   = []string{"site_id", "site_name"}
	deviceLabels = []string{"device_sn", "site_id", "type", "name"}
)

// SnapshotCollector renders the current snapshot on every scrape. It never
// touches the upstream API: a scrape only reads the snapshot installed by
// the last refresh cycle, so scrape cost is independent of upstream latency.
type SnapshotCollector struct {
	store  *snapshot.Store
	logger *zap.Logger

	siteDescs   map[string]*prometheus.Desc
	deviceDescs map[string]*prometheus.Desc

	deviceInfoDesc    *prometheus.Desc
	snapCycleDesc     *prometheus.Desc
	snapTimestampDesc *prometheus.Desc
}

func NewSnapshotCollector(store *snapshot.Store, logger *zap.Logger) *SnapshotCollector {
	c := &SnapshotCollector{
		store:       store,
		logger:      logger,
		siteDescs:   make(map[string]*prometheus.Desc),
		deviceDescs: make(map[string]*prometheus.Desc),
		deviceInfoDesc: prometheus.NewDesc(measure.DEVICE_INFO,
			mustHelp(measure.DEVICE_INFO),
			append(append([]string{}, deviceLabels...), "model", "generation", "sw_version"), nil),
		snapCycleDesc: prometheus.NewDesc("solix_snapshot_cycle",
			"Sequence number of the currently exported refresh cycle", nil, nil),
		snapTimestampDesc: prometheus.NewDesc("solix_snapshot_timestamp_seconds",
			"When the current snapshot was assembled, as seconds since the epoch", nil, nil),
	}
	for _, name := range measure.AllNames() {
		switch name {
		case measure.DEVICE_INFO, measure.SITE_DATA_VALID, measure.DEVICE_DATA_VALID:
			// emitted from entity identity and validity, not from readings
		default:
			c.descFor(name)
		}
	}
	c.siteDescs[measure.SITE_DATA_VALID] = prometheus.NewDesc(measure.SITE_DATA_VALID,
		mustHelp(measure.SITE_DATA_VALID), siteLabels, nil)
	c.deviceDescs[measure.DEVICE_DATA_VALID] = prometheus.NewDesc(measure.DEVICE_DATA_VALID,
		mustHelp(measure.DEVICE_DATA_VALID), deviceLabels, nil)
	return c
}

func (c *SnapshotCollector) descFor(name string) *prometheus.Desc {
	if strings.HasPrefix(name, "solix_site_") {
		if d, ok := c.siteDescs[name]; ok {
			return d
		}
		d := prometheus.NewDesc(name, mustHelp(name), siteLabels, nil)
		c.siteDescs[name] = d
		return d
	}
	if d, ok := c.deviceDescs[name]; ok {
		return d
	}
	d := prometheus.NewDesc(name, mustHelp(name), deviceLabels, nil)
	c.deviceDescs[name] = d
	return d
}

func mustHelp(name string) string {
	m, ok := measure.Lookup(name)
	if !ok {
		return name
	}
	return m.Help
}

func (c *SnapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.siteDescs {
		ch <- d
	}
	for _, d := range c.deviceDescs {
		ch <- d
	}
	ch <- c.deviceInfoDesc
	ch <- c.snapCycleDesc
	ch <- c.snapTimestampDesc
}

func (c *SnapshotCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.Current()
	if snap == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.snapCycleDesc, prometheus.GaugeValue, float64(snap.Cycle))
	ch <- prometheus.MustNewConstMetric(c.snapTimestampDesc, prometheus.GaugeValue, float64(snap.Taken.Unix()))

	for _, entity := range snap.Entities {
		if entity.Info.Category.IsDevice() {
			c.collectDevice(ch, entity)
		} else {
			c.collectSite(ch, entity)
		}
	}
}

func (c *SnapshotCollector) collectSite(ch chan<- prometheus.Metric, entity domain.EntityReadings) {
	labels := []string{entity.Info.ID, entity.Info.Name}

	ch <- prometheus.MustNewConstMetric(c.siteDescs[measure.SITE_DATA_VALID],
		prometheus.GaugeValue, bool2Gauge(entity.Valid), labels...)

	for name, value := range entity.Readings {
		desc, ok := c.siteDescs[name]
		if !ok {
			c.logger.Warn("metrics: unregistered site reading", zap.String("name", name))
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
	}
}

func (c *SnapshotCollector) collectDevice(ch chan<- prometheus.Metric, entity domain.EntityReadings) {
	info := entity.Info
	labels := []string{info.ID, info.SiteID, string(info.Category), info.Name}

	ch <- prometheus.MustNewConstMetric(c.deviceInfoDesc, prometheus.GaugeValue, 1,
		append(append([]string{}, labels...), info.Model, info.Generation, info.SWVersion)...)
	ch <- prometheus.MustNewConstMetric(c.deviceDescs[measure.DEVICE_DATA_VALID],
		prometheus.GaugeValue, bool2Gauge(entity.Valid), labels...)

	for name, value := range entity.Readings {
		desc, ok := c.deviceDescs[name]
		if !ok {
			c.logger.Warn("metrics: unregistered device reading", zap.String("name", name))
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
	}
}

func bool2Gauge(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
