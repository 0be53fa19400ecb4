package store

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKnownEntities(t *testing.T) {
	r := NewResolver(slog.New(slog.DiscardHandler), nil)

	tests := map[string]string{
		"Municipality":    "municipalities",
		"Challenge":       "challenges",
		"Pilot":           "pilots",
		"UserFollow":      "follows",
		"RDProject":       "rd_projects",
		"CitizenFeedback": "citizen_feedback",
		"LessonLearned":   "lessons_learned",
	}
	for entity, table := range tests {
		t.Run(entity, func(t *testing.T) {
			assert.Equal(t, table, r.Resolve(entity))
			assert.True(t, r.Known(entity))
		})
	}
}

func TestResolveOverridesWin(t *testing.T) {
	overrides := map[string]string{"Challenge": "municipal_challenges", "Widget": "widget_catalog"}
	r := NewResolver(slog.New(slog.DiscardHandler), overrides)

	assert.Equal(t, "municipal_challenges", r.Resolve("Challenge"))
	assert.Equal(t, "widget_catalog", r.Resolve("Widget"))
	assert.True(t, r.Known("Widget"))

	overrides["Pilot"] = "changed_after_construction"
	assert.Equal(t, "pilots", r.Resolve("Pilot"))
}

func TestResolveInfersAndWarns(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(slog.New(slog.NewTextHandler(&buf, nil)), nil)

	assert.Equal(t, "smart_bench_sensors", r.Resolve("SmartBenchSensor"))
	assert.False(t, r.Known("SmartBenchSensor"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "entity=SmartBenchSensor")
}

func TestResolveKnownDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(slog.New(slog.NewTextHandler(&buf, nil)), nil)

	r.Resolve("Challenge")
	assert.Empty(t, buf.String())
}

func TestInferTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Widget", "widgets"},
		{"SmartBench", "smart_benchs"},
		{"widget", "widgets"},
		{"ABTest", "a_b_tests"},
		{"", "s"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTableName(tt.in))
		})
	}
}
