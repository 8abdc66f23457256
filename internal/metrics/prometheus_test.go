package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveCMSRequest("list_posts", 20*time.Millisecond, true)
	rec.IncViewIncrementFailure()
	rec.IncViewIncrementFailure()
	rec.AddCompileResult("new", 1)
	rec.ObserveCompileDuration(time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(rec.viewFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.compileResults.WithLabelValues("new")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var rec *PrometheusRecorder
	assert.NotPanics(t, func() {
		rec.ObserveCMSRequest("get_post", time.Millisecond, false)
		rec.IncViewIncrementFailure()
		rec.AddCompileResult("skipped", 1)
		rec.ObserveCompileDuration(time.Millisecond)
	})
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
