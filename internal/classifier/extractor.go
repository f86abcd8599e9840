package classifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/mailtime/internal/models"
	"github.com/xaenox/mailtime/internal/patterns"
)

// TypeRule assigns Type when the joined fragments contain any of Keywords.
type TypeRule struct {
	Type     models.ObligationType
	Keywords []string
}

// Config is the explicit configuration of an Extractor.
type Config struct {
	// ObligationKeywords anchor the keyword-in-context patterns.
	ObligationKeywords []string
	// ContextWindow is how many characters follow a keyword at most.
	ContextWindow int
	// Precedence is checked in order; the first matching rule wins.
	Precedence []TypeRule
	// UrgencyKeywords raise any finding to high priority.
	UrgencyKeywords []string
	// ElevatedTypes get medium priority when no urgency keyword is present.
	ElevatedTypes []models.ObligationType
	// ClassifyUnmatched computes classification and priority over the full
	// text when no fragment matched.
	ClassifyUnmatched bool
}

// DefaultConfig returns the standard vocabulary. Deadline language is
// checked before billing language.
func DefaultConfig() Config {
	return Config{
		ObligationKeywords: append([]string(nil), patterns.DefaultKeywords...),
		ContextWindow:      patterns.DefaultWindow,
		Precedence: []TypeRule{
			{Type: models.Deadline, Keywords: []string{"due", "deadline"}},
			{Type: models.Payment, Keywords: []string{"payment", "bill"}},
			{Type: models.Assignment, Keywords: []string{"assignment", "homework"}},
			{Type: models.Meeting, Keywords: []string{"meeting", "appointment"}},
		},
		UrgencyKeywords: []string{"urgent", "asap", "immediately", "today", "tomorrow"},
		ElevatedTypes:   []models.ObligationType{models.Payment, models.Deadline},
	}
}

// Extractor is the local, pattern-based Classifier. It holds no mutable
// state and may be shared across goroutines.
type Extractor struct {
	library           *patterns.Library
	precedence        []TypeRule
	urgency           []string
	elevated          map[models.ObligationType]struct{}
	classifyUnmatched bool
	logger            *zap.Logger
}

func NewExtractor(cfg Config, logger *zap.Logger) (*Extractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	lib, err := patterns.New(cfg.ObligationKeywords, cfg.ContextWindow)
	if err != nil {
		return nil, fmt.Errorf("build pattern library: %w", err)
	}

	f := newFolder()
	precedence := make([]TypeRule, 0, len(cfg.Precedence))
	for _, rule := range cfg.Precedence {
		if rule.Type == "" {
			return nil, fmt.Errorf("precedence rule without a type")
		}
		precedence = append(precedence, TypeRule{Type: rule.Type, Keywords: foldAll(f, rule.Keywords)})
	}

	elevated := make(map[models.ObligationType]struct{}, len(cfg.ElevatedTypes))
	for _, t := range cfg.ElevatedTypes {
		elevated[t] = struct{}{}
	}

	return &Extractor{
		library:           lib,
		precedence:        precedence,
		urgency:           foldAll(f, cfg.UrgencyKeywords),
		elevated:          elevated,
		classifyUnmatched: cfg.ClassifyUnmatched,
		logger:            logger,
	}, nil
}

func foldAll(f *folder, words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		out = append(out, f.fold(w))
	}
	return out
}

// Extract scans the subject and body for temporal evidence and classifies
// the message. It never fails for a valid message.
func (e *Extractor) Extract(_ context.Context, msg *models.Message) (models.Finding, error) {
	if err := msg.Validate(); err != nil {
		return models.Finding{}, err
	}

	text := msg.Subject + " " + msg.Body
	f := newFolder()
	fragments := f.dedupe(e.library.Scan(text))

	if len(fragments) == 0 {
		finding := models.NoTimeInfo(msg.ID)
		if e.classifyUnmatched {
			folded := f.fold(text)
			finding.Classification = e.classify(folded)
			finding.Priority = e.prioritize(folded, finding.Classification)
		}
		e.logger.Debug("No time info found", zap.String("message_id", msg.ID))
		return finding, nil
	}

	content := f.fold(strings.Join(fragments, "; "))
	classification := e.classify(content)
	priority := e.prioritize(content, classification)

	e.logger.Debug("Extracted time info",
		zap.String("message_id", msg.ID),
		zap.Int("fragments", len(fragments)),
		zap.String("classification", string(classification)),
		zap.Stringer("priority", priority))

	return models.Finding{
		HasTimeInfo:     true,
		Fragments:       fragments,
		Classification:  classification,
		Priority:        priority,
		SourceMessageID: msg.ID,
	}, nil
}

func (e *Extractor) classify(content string) models.ObligationType {
	for _, rule := range e.precedence {
		if containsAny(content, rule.Keywords) {
			return rule.Type
		}
	}
	return models.General
}

func (e *Extractor) prioritize(content string, t models.ObligationType) models.PriorityLevel {
	if containsAny(content, e.urgency) {
		return models.PriorityHigh
	}
	if _, ok := e.elevated[t]; ok {
		return models.PriorityMedium
	}
	return models.PriorityLow
}
