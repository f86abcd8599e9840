package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/xaenox/mailtime/internal/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	f := models.Finding{HasTimeInfo: true, Classification: models.Deadline, Priority: models.PriorityHigh}
	rec.ObserveFinding("local", f, time.Millisecond)
	rec.ObserveFinding("local", f, time.Millisecond)
	rec.ObserveFailure("remote", KindUnavailable, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.findings.WithLabelValues("local", "Deadline", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.failures.WithLabelValues("remote", KindUnavailable)))
	assert.Equal(t, 2, testutil.CollectAndCount(rec.duration))
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.ObserveFinding("local", models.NoTimeInfo("x"), time.Millisecond)
		rec.ObserveFailure("local", KindOther, time.Millisecond)
	})
}
