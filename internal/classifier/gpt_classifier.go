package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/mailtime/internal/models"
)

// GPTResponse is the JSON document the model is asked to return.
type GPTResponse struct {
	HasTimeInfo        bool        `json:"hasTimeInfo"`
	TimeRelatedContent []string    `json:"timeRelatedContent"`
	Summary            *GPTSummary `json:"summary"`
}

type GPTSummary struct {
	Type           string   `json:"type"`
	Priority       string   `json:"priority"`
	KeyDates       []string `json:"keyDates"`
	Description    string   `json:"description"`
	ActionRequired string   `json:"actionRequired"`
}

// GPTClassifier delegates extraction to an OpenAI-compatible chat model.
// Any failure is reported as ErrClassificationUnavailable.
type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGPTClassifier builds a remote classifier. An empty apiKey yields a
// classifier that reports itself unavailable on every call. baseURL may
// point at any OpenAI-compatible endpoint; empty means the OpenAI default.
func NewGPTClassifier(apiKey, baseURL, model string, maxTokens int, temperature float64, timeout time.Duration, logger *zap.Logger) *GPTClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &GPTClassifier{
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		c.client = openai.NewClientWithConfig(cfg)
	}
	return c
}

// Configured reports whether an API key was supplied.
func (c *GPTClassifier) Configured() bool {
	return c.client != nil
}

func (c *GPTClassifier) Extract(ctx context.Context, msg *models.Message) (models.Finding, error) {
	if err := msg.Validate(); err != nil {
		return models.Finding{}, err
	}
	if c.client == nil {
		return models.Finding{}, fmt.Errorf("%w: remote classifier is not configured", ErrClassificationUnavailable)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildPrompt(msg),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("Failed to get GPT response", zap.Error(err), zap.String("message_id", msg.ID))
		return models.Finding{}, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return models.Finding{}, fmt.Errorf("%w: empty response", ErrClassificationUnavailable)
	}

	content := resp.Choices[0].Message.Content
	parsed, err := parseGPTResponse(content)
	if err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.String("message_id", msg.ID),
			zap.String("response", content))
		return models.Finding{}, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}

	return toFinding(parsed, msg.ID), nil
}

func buildPrompt(msg *models.Message) string {
	date := ""
	if !msg.ReceivedAt.IsZero() {
		date = msg.ReceivedAt.Format(time.RFC3339)
	}

	return fmt.Sprintf(`Analyze this email and extract any time-related information. Focus on:

1. Due dates, deadlines, or time-sensitive tasks
2. Meeting schedules, appointments, or calls
3. Payment due dates or billing information
4. Assignment deadlines or project timelines
5. Any urgent or time-critical information

Email Content:
Subject: %s
From: %s
Date: %s

Body:
%s

Respond with a JSON object in this exact format:
{
  "hasTimeInfo": true/false,
  "timeRelatedContent": ["time-related phrases copied verbatim from the email"],
  "summary": {
    "type": "Deadline|Payment|Assignment|Meeting|General",
    "priority": "high|medium|low",
    "keyDates": ["extracted dates and times"],
    "description": "brief summary of the time-related information",
    "actionRequired": "what the user needs to do"
  }
}

If no time-related information is found, set hasTimeInfo to false and leave timeRelatedContent empty.`,
		msg.Subject, msg.Sender, date, msg.Body)
}

// parseGPTResponse pulls the outermost JSON object out of the model output,
// repairing it when the model produced slightly malformed JSON.
func parseGPTResponse(content string) (GPTResponse, error) {
	var out GPTResponse

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return out, fmt.Errorf("no JSON object in response")
	}
	raw := content[start : end+1]

	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return out, fmt.Errorf("repair JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return out, fmt.Errorf("decode repaired JSON: %w", err)
	}
	return out, nil
}

// toFinding applies the local invariants to a remote answer: fragments are
// deduplicated and an answer without fragments is always General/Low.
func toFinding(resp GPTResponse, messageID string) models.Finding {
	fragments := newFolder().dedupe(resp.TimeRelatedContent)
	if len(fragments) == 0 {
		return models.NoTimeInfo(messageID)
	}

	finding := models.Finding{
		HasTimeInfo:     true,
		Fragments:       fragments,
		Classification:  models.General,
		Priority:        models.PriorityLow,
		SourceMessageID: messageID,
	}
	if resp.Summary != nil {
		// Unknown values keep the General/Low defaults.
		finding.Classification, _ = models.ParseObligationType(resp.Summary.Type)
		finding.Priority, _ = models.ParsePriority(resp.Summary.Priority)
	}
	return finding
}
