// Package source reads messages from files and archives for analysis.
package source

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xaenox/mailtime/internal/models"
)

// DecodeMessages reads a JSON array of messages. Every element is decoded on
// its own so one malformed message does not hide the others; only a broken
// array fails the whole call.
func DecodeMessages(r io.Reader) ([]models.Envelope, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode message list: %w", err)
	}

	out := make([]models.Envelope, 0, len(raw))
	for i, item := range raw {
		var msg models.Message
		if err := json.Unmarshal(item, &msg); err != nil {
			out = append(out, models.Envelope{Err: fmt.Errorf("message %d: %w", i, err)})
			continue
		}
		out = append(out, models.Envelope{Message: &msg})
	}
	return out, nil
}

//go:embed samples.json
var samplesJSON []byte

// Samples returns the built-in demo messages.
func Samples() ([]*models.Message, error) {
	var msgs []*models.Message
	if err := json.Unmarshal(samplesJSON, &msgs); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return msgs, nil
}
