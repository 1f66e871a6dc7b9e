package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	runDuration    prom.Histogram
	runOutcomes    *prom.CounterVec
	publishedFiles *prom.CounterVec
	fetchRetries   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the generator metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "run_duration_seconds",
			Help:      "Total generator run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "run_outcomes_total",
			Help:      "Generator runs by final status",
		}, []string{"outcome"}),
		publishedFiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "published_files_total",
			Help:      "Files written per publish destination provider",
		}, []string{"provider"}),
		fetchRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "source_fetch_retries_total",
			Help:      "Content source fetch retries after transient failures",
		}, []string{"source"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcomes, pr.publishedFiles, pr.fetchRetries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddPublishedFiles(provider string, n int) {
	if p == nil {
		return
	}
	p.publishedFiles.WithLabelValues(provider).Add(float64(n))
}

func (p *PrometheusRecorder) IncFetchRetry(source string) {
	if p == nil {
		return
	}
	p.fetchRetries.WithLabelValues(source).Inc()
}
