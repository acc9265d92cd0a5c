package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronolog/store"
)

func entry(uid, title, category string, minutes int64, tier int) *store.LogEntry {
	end := int64(1710525600) // 2024-03-15T18:00:00Z
	e := &store.LogEntry{
		UID:        uid,
		Title:      title,
		Category:   category,
		Calendar:   "Cal",
		Confidence: "high",
		TimeSource: "explicit_range",
		Tier:       tier,
		EndTs:      end,
	}
	if minutes >= 0 {
		start := end - minutes*60
		e.StartTs = &start
	}
	return e
}

func TestCompile_Errors(t *testing.T) {
	tests := map[string]string{
		"syntax":           `category ==`,
		"unknown variable": `project == "x"`,
		"not bool":         `minutes + 1`,
		"type mismatch":    `minutes == "thirty"`,
	}
	for name, expr := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(expr)
			assert.Error(t, err)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	coding := entry("a", "Coding", "prod", 120, 1)
	lunch := entry("b", "Lunch", "admin", -1, 1)
	netflix := entry("c", "Netflix", "nonprod", 45, 2)

	tests := []struct {
		expr string
		want []bool
	}{
		{`category == "prod"`, []bool{true, false, false}},
		{`minutes >= 45`, []bool{true, false, true}},
		{`!has_start`, []bool{false, true, false}},
		{`tier == 2 || title.startsWith("Lu")`, []bool{false, true, true}},
		{`category in ["prod", "nonprod"] && minutes < 60`, []bool{false, false, true}},
		{`end_ts - start_ts == 7200`, []bool{true, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())
			for i, e := range []*store.LogEntry{coding, lunch, netflix} {
				got, err := f.Match(e)
				require.NoError(t, err)
				assert.Equal(t, tt.want[i], got, e.Title)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	entries := []*store.LogEntry{
		entry("a", "Coding", "prod", 120, 1),
		entry("b", "Review", "prod", 20, 1),
		entry("c", "Gym", "prod", 60, 1),
	}

	f, err := Compile(`minutes > 30`)
	require.NoError(t, err)
	got, err := f.Apply(entries)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].UID)
	assert.Equal(t, "c", got[1].UID)
}
