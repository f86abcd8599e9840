package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mailtime/internal/models"
	"github.com/xaenox/mailtime/pkg/config"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("remote", false, "")
	return cmd
}

func readRecords(t *testing.T, out *bytes.Buffer) []record {
	t.Helper()
	var recs []record
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var r record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		recs = append(recs, r)
	}
	return recs
}

func TestRun_Samples(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	metricsFile := filepath.Join(t.TempDir(), "mailtime.prom")

	var out bytes.Buffer
	err := run(context.Background(), testCommand(), options{samples: true, metricsFile: metricsFile}, &out)
	require.NoError(t, err)

	recs := readRecords(t, &out)
	require.Len(t, recs, 5)

	require.NotNil(t, recs[0].Finding)
	assert.Equal(t, "1", recs[0].MessageID)
	assert.Equal(t, models.Deadline, recs[0].Finding.Classification)
	assert.Equal(t, models.PriorityHigh, recs[0].Finding.Priority)

	assert.Equal(t, models.Deadline, recs[1].Finding.Classification)
	assert.Equal(t, models.PriorityMedium, recs[1].Finding.Priority)

	assert.Equal(t, models.Meeting, recs[2].Finding.Classification)
	assert.Equal(t, models.Deadline, recs[3].Finding.Classification)
	assert.False(t, recs[4].Finding.HasTimeInfo)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "mailtime_findings_total")
}

func TestRun_OnlyTimeInfoAndBadInput(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	input := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"id": "a", "subject": "Regular Newsletter", "body": "Nothing new."},
		{"id": "b", "subject": "Payment Reminder"},
		{"id": "c", "subject": "Sync", "body": "Team meeting today at 3 PM"}
	]`), 0o600))

	var out bytes.Buffer
	err := run(context.Background(), testCommand(), options{inputPath: input, onlyTimeInfo: true}, &out)
	require.NoError(t, err)

	recs := readRecords(t, &out)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0].Error, "missing body")
	assert.Equal(t, "c", recs[1].MessageID)
	assert.Equal(t, models.PriorityHigh, recs[1].Finding.Priority)
}

func TestBuildClassifier_RemoteWithoutKeyFallsBack(t *testing.T) {
	cfg := &config.Config{Classifier: config.ClassifierConfig{Remote: true, ContextWindow: 100}}

	clf, err := buildClassifier(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	f, err := clf.Extract(context.Background(), &models.Message{ID: "x", Subject: "Bill", Body: "Your bill is due today"})
	require.NoError(t, err)
	assert.Equal(t, models.Deadline, f.Classification)
}

func TestExtractorConfig(t *testing.T) {
	ecfg, err := extractorConfig(config.ClassifierConfig{
		ContextWindow: 40,
		ElevatedTypes: []string{"meeting"},
		Precedence:    []config.PrecedenceRule{{Type: "payment", Keywords: []string{"invoice"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 40, ecfg.ContextWindow)
	assert.Equal(t, []models.ObligationType{models.Meeting}, ecfg.ElevatedTypes)
	require.Len(t, ecfg.Precedence, 1)
	assert.Equal(t, models.Payment, ecfg.Precedence[0].Type)

	_, err = extractorConfig(config.ClassifierConfig{ContextWindow: 40, ElevatedTypes: []string{"Urgent"}})
	assert.Error(t, err)
}
