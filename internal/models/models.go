package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidMessage is returned when a message is missing a required field
// or carries a field of the wrong type.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a single inbound text message to analyze.
type Message struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"received_at"`
}

// Validate reports whether the message can be analyzed.
func (m *Message) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}
	if !utf8.ValidString(m.Subject) {
		return fmt.Errorf("%w: subject is not valid UTF-8", ErrInvalidMessage)
	}
	if !utf8.ValidString(m.Body) {
		return fmt.Errorf("%w: body is not valid UTF-8", ErrInvalidMessage)
	}
	return nil
}

// wireMessage mirrors Message on the wire. Pointers let UnmarshalJSON tell
// a missing field apart from an empty one.
type wireMessage struct {
	ID         json.RawMessage `json:"id"`
	Subject    *string         `json:"subject"`
	Body       *string         `json:"body"`
	Sender     string          `json:"sender"`
	From       string          `json:"from"`
	ReceivedAt *time.Time      `json:"received_at"`
	Date       *time.Time      `json:"date"`
}

// UnmarshalJSON requires subject and body to be present. Callers that have
// no text must send empty strings explicitly.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if w.Subject == nil {
		return fmt.Errorf("%w: missing subject", ErrInvalidMessage)
	}
	if w.Body == nil {
		return fmt.Errorf("%w: missing body", ErrInvalidMessage)
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return err
	}

	msg := Message{
		ID:      id,
		Subject: *w.Subject,
		Body:    *w.Body,
		Sender:  w.Sender,
	}
	if msg.Sender == "" {
		msg.Sender = w.From
	}
	switch {
	case w.ReceivedAt != nil:
		msg.ReceivedAt = *w.ReceivedAt
	case w.Date != nil:
		msg.ReceivedAt = *w.Date
	}

	*m = msg
	return nil
}

// decodeID accepts ids encoded as JSON strings or numbers.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: id: %v", ErrInvalidMessage, err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: id must be a string or number", ErrInvalidMessage)
	}
	return strings.TrimSpace(n.String()), nil
}

// Envelope wraps a decoded message alongside an error encountered while
// reading it from a source.
type Envelope struct {
	Message *Message
	Err     error
}
