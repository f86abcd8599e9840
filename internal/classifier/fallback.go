package classifier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xaenox/mailtime/internal/models"
)

// FallbackClassifier tries primary first and switches to fallback whenever
// primary reports ErrClassificationUnavailable.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	logger   *zap.Logger
}

func NewFallbackClassifier(primary, fallback Classifier, logger *zap.Logger) *FallbackClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FallbackClassifier) Extract(ctx context.Context, msg *models.Message) (models.Finding, error) {
	finding, err := c.primary.Extract(ctx, msg)
	if err == nil {
		return finding, nil
	}
	if !errors.Is(err, ErrClassificationUnavailable) {
		return models.Finding{}, err
	}

	c.logger.Warn("Primary classifier unavailable, falling back",
		zap.Error(err),
		zap.String("message_id", messageID(msg)))
	return c.fallback.Extract(ctx, msg)
}
