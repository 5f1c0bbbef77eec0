// Package prom exports space graph hooks as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	h := prom.NewHooks(reg)
//	observability.SetLocateHooks(h)
//	observability.SetGraphHooks(h)
package prom

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/relation"
)

const namespace = "xrspace"

// Hooks implements [observability.LocateHooks] and [observability.GraphHooks]
// on top of Prometheus collectors.
type Hooks struct {
	locateTotal    *prometheus.CounterVec
	locateDuration *prometheus.HistogramVec
	locateSteps    prometheus.Histogram

	spacesCreated *prometheus.CounterVec
	spacesLive    prometheus.Gauge
	bindTotal     *prometheus.CounterVec
	refSpaceInUse *prometheus.GaugeVec

	recenterTotal    *prometheus.CounterVec
	recenterDuration prometheus.Histogram
}

// NewHooks creates the collectors and registers them with reg. A nil reg
// means [prometheus.DefaultRegisterer]. Registering twice with the same
// registerer panics.
func NewHooks(reg prometheus.Registerer) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Hooks{
		locateTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locate_total",
			Help:      "Resolved relations by entry point and validity.",
		}, []string{"kind", "validity"}),
		locateDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "locate_duration_seconds",
			Help:      "Time to build and resolve one relation chain.",
			Buckets:   []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.001, 0.01},
		}, []string{"kind"}),
		locateSteps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "locate_chain_steps",
			Help:      "Steps in each resolved relation chain.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		}),
		spacesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spaces_created_total",
			Help:      "Space nodes created by kind.",
		}, []string{"kind"}),
		spacesLive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spaces_live",
			Help:      "Space nodes currently alive.",
		}),
		bindTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_binds_total",
			Help:      "Device to space bindings, split by whether a binding was replaced.",
		}, []string{"replaced"}),
		refSpaceInUse: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ref_space_in_use",
			Help:      "1 while a reference space has at least one user.",
		}, []string{"space"}),
		recenterTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recenter_total",
			Help:      "Recenter attempts by result.",
		}, []string{"result"}),
		recenterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recenter_duration_seconds",
			Help:      "Time spent in recenter, including the view sample.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
}

// Validity classifies relation flags for the locate_total metric: "full"
// when position and orientation are both valid and tracked, "none" when
// neither is valid, "partial" otherwise.
func Validity(flags relation.Flags) string {
	switch {
	case flags.Has(relation.AllPoseBits):
		return "full"
	case flags&(relation.PositionValid|relation.OrientationValid) == 0:
		return "none"
	}
	return "partial"
}

// OnLocate implements observability.LocateHooks.
func (h *Hooks) OnLocate(kind string, steps int, flags uint32, d time.Duration) {
	h.locateTotal.WithLabelValues(kind, Validity(relation.Flags(flags))).Inc()
	h.locateDuration.WithLabelValues(kind).Observe(d.Seconds())
	h.locateSteps.Observe(float64(steps))
}

// OnSpaceCreated implements observability.GraphHooks.
func (h *Hooks) OnSpaceCreated(kind string) {
	h.spacesCreated.WithLabelValues(kind).Inc()
	h.spacesLive.Inc()
}

// OnSpaceDestroyed implements observability.GraphHooks.
func (h *Hooks) OnSpaceDestroyed(string) {
	h.spacesLive.Dec()
}

// OnBind implements observability.GraphHooks.
func (h *Hooks) OnBind(_ string, replaced bool) {
	h.bindTotal.WithLabelValues(strconv.FormatBool(replaced)).Inc()
}

// OnRefSpaceUsage implements observability.GraphHooks.
func (h *Hooks) OnRefSpaceUsage(space string, used bool) {
	v := 0.0
	if used {
		v = 1
	}
	h.refSpaceInUse.WithLabelValues(space).Set(v)
}

// OnRecenter implements observability.GraphHooks.
func (h *Hooks) OnRecenter(d time.Duration, err error) {
	h.recenterTotal.WithLabelValues(recenterResult(err)).Inc()
	h.recenterDuration.Observe(d.Seconds())
}

func recenterResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.IsCapabilityAbsent(err):
		return "unsupported"
	}
	return "error"
}

var (
	_ observability.LocateHooks = (*Hooks)(nil)
	_ observability.GraphHooks  = (*Hooks)(nil)
)
