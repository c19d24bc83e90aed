// Package telemetry provides OpenTelemetry instrumentation for the
// spotgrid service. It exports Prometheus metrics and provides tracing
// capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "spotgrid"

// Metrics holds all spotgrid Prometheus metrics.
type Metrics struct {
	// Assignment metrics
	SpotsAssigned *prometheus.CounterVec
	SpotsFailed   prometheus.Counter
	SpotsFlagged  prometheus.Counter

	// Rule chain metrics
	RuleHits          *prometheus.CounterVec
	CampaignTypeTotal *prometheus.CounterVec

	// Timing metrics
	ClassifyDuration prometheus.Histogram
	BatchDuration    prometheus.Histogram
	BatchSize        prometheus.Histogram

	// Grid metrics
	ScheduleMisses prometheus.Counter
	BlocksPerSpot  prometheus.Histogram
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

// StartSpan starts a trace span for a pipeline stage.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// RecordAssignment records the outcome of one spot classification.
func (p *Provider) RecordAssignment(method, campaignType, rule string, flagged bool, duration time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.SpotsAssigned.WithLabelValues(method).Inc()
	p.Metrics.CampaignTypeTotal.WithLabelValues(campaignType).Inc()
	if rule != "" {
		p.Metrics.RuleHits.WithLabelValues(rule).Inc()
	}
	if flagged {
		p.Metrics.SpotsFlagged.Inc()
	}
	p.Metrics.ClassifyDuration.Observe(duration.Seconds())
}

// RecordFailure records a spot that could not be assigned.
func (p *Provider) RecordFailure() {
	if p == nil {
		return
	}
	p.Metrics.SpotsFailed.Inc()
}

// RecordBatch records one batch run.
func (p *Provider) RecordBatch(size int, duration time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.BatchSize.Observe(float64(size))
	p.Metrics.BatchDuration.Observe(duration.Seconds())
}

// RecordOverlap records grid resolver outcomes.
func (p *Provider) RecordOverlap(blockCount int, scheduleFound bool) {
	if p == nil {
		return
	}
	if !scheduleFound {
		p.Metrics.ScheduleMisses.Inc()
	}
	p.Metrics.BlocksPerSpot.Observe(float64(blockCount))
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initAssignmentMetrics(m)
	initRuleMetrics(m)
	initTimingMetrics(m)
	initGridMetrics(m)
	return m
}

func initAssignmentMetrics(m *Metrics) {
	m.SpotsAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotgrid_spots_assigned_total",
		Help: "Total spots assigned a campaign type",
	}, []string{"method"})

	m.SpotsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotgrid_spots_failed_total",
		Help: "Total spots that failed assignment",
	})

	m.SpotsFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotgrid_spots_flagged_total",
		Help: "Total spots flagged requires_attention",
	})
}

func initRuleMetrics(m *Metrics) {
	m.RuleHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotgrid_rule_hits_total",
		Help: "Total terminal matches per precedence rule",
	}, []string{"rule"})

	m.CampaignTypeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotgrid_campaign_type_total",
		Help: "Total assignments per campaign type",
	}, []string{"campaign_type"})
}

func initTimingMetrics(m *Metrics) {
	m.ClassifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spotgrid_classify_duration_seconds",
		Help:    "Time to classify a single spot",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	m.BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spotgrid_batch_duration_seconds",
		Help:    "Time to process one batch of spots",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
	})

	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spotgrid_batch_size",
		Help:    "Number of spots per batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

func initGridMetrics(m *Metrics) {
	m.ScheduleMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotgrid_schedule_misses_total",
		Help: "Spots with no active schedule for market and air date",
	})

	m.BlocksPerSpot = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spotgrid_blocks_per_spot",
		Help:    "Language blocks overlapping a spot's air time",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 15, 25, 50},
	})
}
