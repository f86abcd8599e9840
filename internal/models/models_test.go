package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Message
		wantErr bool
	}{
		{
			name: "string id",
			in:   `{"id":"m-1","subject":"Hi","body":"there","sender":"a@b.c"}`,
			want: Message{ID: "m-1", Subject: "Hi", Body: "there", Sender: "a@b.c"},
		},
		{
			name: "numeric id and legacy from",
			in:   `{"id":3,"subject":"","body":"","from":"boss@corp.com"}`,
			want: Message{ID: "3", Sender: "boss@corp.com"},
		},
		{
			name: "legacy date",
			in:   `{"subject":"s","body":"b","date":"2024-12-01T10:00:00Z"}`,
			want: Message{Subject: "s", Body: "b", ReceivedAt: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)},
		},
		{name: "missing subject", in: `{"id":"x","body":"b"}`, wantErr: true},
		{name: "missing body", in: `{"id":"x","subject":"s"}`, wantErr: true},
		{name: "null body", in: `{"subject":"s","body":null}`, wantErr: true},
		{name: "subject wrong type", in: `{"subject":42,"body":"b"}`, wantErr: true},
		{name: "id wrong type", in: `{"id":{"a":1},"subject":"s","body":"b"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got Message
			err := json.Unmarshal([]byte(tc.in), &got)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMessageValidate(t *testing.T) {
	var nilMsg *Message
	assert.ErrorIs(t, nilMsg.Validate(), ErrInvalidMessage)
	assert.ErrorIs(t, (&Message{Subject: "ok", Body: "\xff\xfe"}).Validate(), ErrInvalidMessage)
	assert.NoError(t, (&Message{}).Validate())
}

func TestPriorityOrderingAndText(t *testing.T) {
	assert.Greater(t, PriorityHigh, PriorityMedium)
	assert.Greater(t, PriorityMedium, PriorityLow)

	out, err := json.Marshal(Finding{Priority: PriorityMedium, Fragments: []string{}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"priority":"medium"`)

	var p PriorityLevel
	require.NoError(t, p.UnmarshalText([]byte("HIGH")))
	assert.Equal(t, PriorityHigh, p)
	assert.Error(t, p.UnmarshalText([]byte("critical")))
}

func TestParseObligationType(t *testing.T) {
	got, err := ParseObligationType(" payment ")
	require.NoError(t, err)
	assert.Equal(t, Payment, got)

	got, err = ParseObligationType("Urgent")
	assert.Error(t, err)
	assert.Equal(t, General, got)
}

func TestFindingClone(t *testing.T) {
	f := Finding{Fragments: []string{"today"}}
	c := f.Clone()
	c.Fragments[0] = "changed"
	assert.Equal(t, "today", f.Fragments[0])
}
