package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mailtime/internal/models"
)

// stubClassifier returns a fixed finding or error and counts its calls.
type stubClassifier struct {
	finding models.Finding
	err     error
	calls   atomic.Int32
}

func (s *stubClassifier) Extract(_ context.Context, msg *models.Message) (models.Finding, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.Finding{}, s.err
	}
	f := s.finding.Clone()
	f.SourceMessageID = msg.ID
	return f, nil
}

func TestFallback_UsesPrimaryOnSuccess(t *testing.T) {
	primary := &stubClassifier{finding: models.Finding{HasTimeInfo: true, Fragments: []string{"today"}, Classification: models.Meeting, Priority: models.PriorityHigh}}
	fallback := &stubClassifier{}

	f, err := NewFallbackClassifier(primary, fallback, nil).Extract(context.Background(), &models.Message{ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, models.Meeting, f.Classification)
	assert.EqualValues(t, 0, fallback.calls.Load())
}

func TestFallback_FallsBackWhenUnavailable(t *testing.T) {
	primary := &stubClassifier{err: fmt.Errorf("%w: dial tcp: refused", ErrClassificationUnavailable)}
	local := newTestExtractor(t)

	msg := &models.Message{ID: "2", Subject: "Payment Reminder", Body: "Your bill is due today"}
	f, err := NewFallbackClassifier(primary, local, nil).Extract(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, models.Deadline, f.Classification)
	assert.Equal(t, models.PriorityHigh, f.Priority)
	assert.EqualValues(t, 1, primary.calls.Load())
}

func TestFallback_UnconfiguredRemote(t *testing.T) {
	remote := NewGPTClassifier("", "", "m", 10, 0, 0, nil)
	c := NewFallbackClassifier(remote, newTestExtractor(t), nil)

	f, err := c.Extract(context.Background(), &models.Message{ID: "3", Subject: "Regular Newsletter", Body: "Updates inside."})
	require.NoError(t, err)
	assert.Equal(t, models.NoTimeInfo("3"), f)
}

func TestFallback_DoesNotMaskOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	fallback := &stubClassifier{}

	_, err := NewFallbackClassifier(&stubClassifier{err: boom}, fallback, nil).Extract(context.Background(), &models.Message{})
	assert.ErrorIs(t, err, boom)

	_, err = NewFallbackClassifier(newTestExtractor(t), fallback, nil).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.EqualValues(t, 0, fallback.calls.Load())
}
