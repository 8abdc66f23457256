package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blogfeed"

type PrometheusRecorder struct {
	cmsDuration     *prom.HistogramVec
	viewFailures    prom.Counter
	compileResults  *prom.CounterVec
	compileDuration prom.Histogram
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	pr := &PrometheusRecorder{
		cmsDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cms_request_duration_seconds",
			Help:      "Duration of headless CMS requests",
			Buckets:   prom.DefBuckets,
		}, []string{"operation", "result"}),
		viewFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "view_increment_failures_total",
			Help:      "View counter increments that failed and were swallowed",
		}),
		compileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compile_posts_total",
			Help:      "Compiled static posts by result",
		}, []string{"result"}),
		compileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of static content compile runs",
			Buckets:   prom.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(pr.cmsDuration, pr.viewFailures, pr.compileResults, pr.compileDuration)
	}
	return pr
}

func (p *PrometheusRecorder) ObserveCMSRequest(operation string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	p.cmsDuration.WithLabelValues(operation, result).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncViewIncrementFailure() {
	if p == nil {
		return
	}
	p.viewFailures.Inc()
}

func (p *PrometheusRecorder) AddCompileResult(result string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.compileResults.WithLabelValues(result).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.compileDuration.Observe(d.Seconds())
}

// HTTPHandler serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
