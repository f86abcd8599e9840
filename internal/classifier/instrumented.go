package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/mailtime/internal/metrics"
	"github.com/xaenox/mailtime/internal/models"
)

type instrumented struct {
	inner Classifier
	name  string
	rec   *metrics.Recorder
}

// WithMetrics reports the outcome and latency of every call to inner under
// the given classifier name.
func WithMetrics(inner Classifier, name string, rec *metrics.Recorder) Classifier {
	if rec == nil {
		return inner
	}
	return &instrumented{inner: inner, name: name, rec: rec}
}

func (c *instrumented) Extract(ctx context.Context, msg *models.Message) (models.Finding, error) {
	start := time.Now()
	f, err := c.inner.Extract(ctx, msg)
	if err != nil {
		c.rec.ObserveFailure(c.name, errorKind(err), time.Since(start))
		return f, err
	}
	c.rec.ObserveFinding(c.name, f, time.Since(start))
	return f, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMessage):
		return metrics.KindInvalidMessage
	case errors.Is(err, ErrClassificationUnavailable):
		return metrics.KindUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.KindCanceled
	default:
		return metrics.KindOther
	}
}
