package classifier

import (
	"context"
	"errors"

	"github.com/xaenox/mailtime/internal/models"
)

// ErrInvalidMessage is returned before any matching when a message cannot be
// analyzed.
var ErrInvalidMessage = models.ErrInvalidMessage

// ErrClassificationUnavailable is returned by remote classifiers when they
// cannot produce a finding. Callers recover by falling back to the local
// Extractor.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// Classifier turns a message into a Finding.
type Classifier interface {
	Extract(ctx context.Context, msg *models.Message) (models.Finding, error)
}

func messageID(msg *models.Message) string {
	if msg == nil {
		return ""
	}
	return msg.ID
}
