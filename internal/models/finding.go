package models

import (
	"fmt"
	"strings"
)

// ObligationType is the kind of time-sensitive content found in a message.
type ObligationType string

const (
	Deadline   ObligationType = "Deadline"
	Payment    ObligationType = "Payment"
	Assignment ObligationType = "Assignment"
	Meeting    ObligationType = "Meeting"
	General    ObligationType = "General"
)

var obligationTypes = []ObligationType{Deadline, Payment, Assignment, Meeting, General}

// ParseObligationType matches s case-insensitively against the known types.
func ParseObligationType(s string) (ObligationType, error) {
	s = strings.TrimSpace(s)
	for _, t := range obligationTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return General, fmt.Errorf("unknown obligation type %q", s)
}

// PriorityLevel ranks findings for downstream alerting. Higher is more urgent.
type PriorityLevel int

const (
	PriorityLow PriorityLevel = iota
	PriorityMedium
	PriorityHigh
)

func (p PriorityLevel) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParsePriority parses "high", "medium" or "low" in any case.
func ParsePriority(s string) (PriorityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return PriorityLow, fmt.Errorf("unknown priority %q", s)
}

func (p PriorityLevel) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PriorityLevel) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Finding is the analysis result for one message. A Finding is created
// fresh for every call and belongs to the caller.
type Finding struct {
	HasTimeInfo     bool           `json:"has_time_info"`
	Fragments       []string       `json:"fragments"`
	Classification  ObligationType `json:"classification"`
	Priority        PriorityLevel  `json:"priority"`
	SourceMessageID string         `json:"source_message_id"`
}

// NoTimeInfo returns the finding for a message without temporal evidence.
func NoTimeInfo(messageID string) Finding {
	return Finding{
		HasTimeInfo:     false,
		Fragments:       []string{},
		Classification:  General,
		Priority:        PriorityLow,
		SourceMessageID: messageID,
	}
}

// Clone returns a deep copy of f.
func (f Finding) Clone() Finding {
	out := f
	out.Fragments = make([]string, len(f.Fragments))
	copy(out.Fragments, f.Fragments)
	return out
}
