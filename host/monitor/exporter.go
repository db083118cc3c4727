package monitor

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Exporter publishes the latest clock status as Prometheus gauges
type Exporter struct {
	registry *prometheus.Registry

	measured     prometheus.Gauge
	drift        prometheus.Gauge
	seconds      prometheus.Gauge
	calibrations prometheus.Gauge
	faults       prometheus.Gauge
	samples      prometheus.Gauge
	gaps         prometheus.Gauge
	dropped      prometheus.Gauge
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ulpclock",
		Name:      name,
		Help:      help,
	})
}

// NewExporter creates an exporter with its own registry
func NewExporter() *Exporter {
	e := &Exporter{
		registry:     prometheus.NewRegistry(),
		measured:     newGauge("measured_tick_units", "Measured tick duration in 1/32768 s"),
		drift:        newGauge("drift_ppm", "Reference oscillator error against the nominal tick"),
		seconds:      newGauge("seconds", "Seconds kept by the clock"),
		calibrations: newGauge("calibrations", "Accepted measurements"),
		faults:       newGauge("faults", "Rejected measurements"),
		samples:      newGauge("samples", "Status reports received"),
		gaps:         newGauge("gaps", "Status reports lost on the link"),
		dropped:      newGauge("dropped_frames", "Link resynchronisations"),
	}
	e.registry.MustRegister(e.measured, e.drift, e.seconds, e.calibrations, e.faults, e.samples, e.gaps, e.dropped)
	return e
}

// Observe updates the gauges from a sample and the running summary
func (e *Exporter) Observe(s Sample, sum Summary) {
	e.measured.Set(float64(s.Status.Measured))
	e.drift.Set(s.DriftPPM)
	e.seconds.Set(float64(s.Status.Seconds))
	e.calibrations.Set(float64(s.Status.Calibrations))
	e.faults.Set(float64(s.Status.Faults))
	e.samples.Set(float64(sum.Samples))
	e.gaps.Set(float64(sum.Gaps))
	e.dropped.Set(float64(sum.Dropped))
}

// Attach feeds every sample of m into the exporter
func (e *Exporter) Attach(m *Monitor) {
	m.OnSample(func(s Sample) {
		e.Observe(s, m.Summary())
	})
}

// Handler serves the registry
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

// ListenAndServe serves /metrics on addr until ctx is done
func (e *Exporter) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		if err := server.Close(); err != nil {
			log.Errorf("closing metrics server: %v", err)
		}
	}()

	log.Infof("serving metrics on %s/metrics", addr)
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
