package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opensensing/lteshield/shield"
)

// scrapeTimeout bounds the module transactions issued per scrape.
const scrapeTimeout = 10 * time.Second

// ShieldCollector implements prometheus.Collector on top of a shield
// handle. The driver runs one transaction at a time, so scrapes share a
// mutex with the HTTP status handler and query the module on demand.
type ShieldCollector struct {
	shield *shield.Shield
	mu     *sync.Mutex
	logger *slog.Logger

	stateDesc      *prometheus.Desc
	registeredDesc *prometheus.Desc
	signalDesc     *prometheus.Desc

	scrapeSuccessDesc  *prometheus.Desc
	scrapeDurationDesc *prometheus.Desc
}

// NewShieldCollector creates a collector reading from the given shield. The
// mutex must be the one guarding all other module access in the process.
func NewShieldCollector(dev *shield.Shield, mu *sync.Mutex, logger *slog.Logger) *ShieldCollector {
	return &ShieldCollector{
		shield: dev,
		mu:     mu,
		logger: logger,

		stateDesc: prometheus.NewDesc(
			"lteshield_state",
			"Bring-up state of the module, one series per state",
			[]string{"state"},
			nil,
		),
		registeredDesc: prometheus.NewDesc(
			"lteshield_registered",
			"Whether the module is registered with a network",
			nil,
			nil,
		),
		signalDesc: prometheus.NewDesc(
			"lteshield_signal_dbm",
			"Received signal strength in dBm",
			nil,
			nil,
		),

		scrapeSuccessDesc: prometheus.NewDesc(
			"lteshield_scrape_success",
			"Whether the last scrape was successful",
			nil,
			nil,
		),
		scrapeDurationDesc: prometheus.NewDesc(
			"lteshield_scrape_duration_seconds",
			"Duration of the last scrape in seconds",
			nil,
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ShieldCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stateDesc
	ch <- c.registeredDesc
	ch <- c.signalDesc
	ch <- c.scrapeSuccessDesc
	ch <- c.scrapeDurationDesc
}

// Collect implements prometheus.Collector.
func (c *ShieldCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		ch <- prometheus.MustNewConstMetric(c.scrapeDurationDesc, prometheus.GaugeValue, v)
	}))
	defer timer.ObserveDuration()

	state := c.shield.State()
	ch <- prometheus.MustNewConstMetric(c.stateDesc, prometheus.GaugeValue, 1, state.String())

	// Live readings need a working command channel.
	if state != shield.StateRegistered {
		ch <- prometheus.MustNewConstMetric(c.registeredDesc, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccessDesc, prometheus.GaugeValue, 1)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	status, err := c.shield.RegistrationStatus(ctx)
	if err != nil {
		c.logger.Error("Registration query failed during scrape", "error", err)
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccessDesc, prometheus.GaugeValue, 0)
		return
	}

	registered := 0.0
	if status.Registered() {
		registered = 1
	}
	ch <- prometheus.MustNewConstMetric(c.registeredDesc, prometheus.GaugeValue, registered)

	quality, err := c.shield.SignalQuality(ctx)
	if err != nil {
		c.logger.Error("Signal query failed during scrape", "error", err)
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccessDesc, prometheus.GaugeValue, 0)
		return
	}
	if dbm, ok := quality.DBm(); ok {
		ch <- prometheus.MustNewConstMetric(c.signalDesc, prometheus.GaugeValue, float64(dbm))
	}

	ch <- prometheus.MustNewConstMetric(c.scrapeSuccessDesc, prometheus.GaugeValue, 1)
}
