package logparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow       = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	testLastEvent = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
}

func TestExtractTimeInfo(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		offset        int
		withLastEvent bool
		source        TimeSource
		start         *time.Time
		end           *time.Time
	}{
		{
			name:    "from to with offset",
			message: "log coding from 9am to 11am",
			offset:  -420,
			source:  SourceExplicitRange,
			start:   ptr(at(16, 0)),
			end:     ptr(at(18, 0)),
		},
		{
			name:    "between and",
			message: "track reading between 8pm and 9:30pm",
			source:  SourceExplicitRange,
			start:   ptr(at(20, 0)),
			end:     ptr(at(21, 30)),
		},
		{
			name:    "dash range",
			message: "log gym 7-8am",
			source:  SourceExplicitRange,
			start:   ptr(at(7, 0)),
			end:     ptr(at(8, 0)),
		},
		{
			name:    "until range",
			message: "log work 1pm until 3pm",
			source:  SourceExplicitRange,
			start:   ptr(at(13, 0)),
			end:     ptr(at(15, 0)),
		},
		{
			name:    "range wins over duration",
			message: "log work from 9 to 10 for 3 hours",
			source:  SourceExplicitRange,
			start:   ptr(at(9, 0)),
			end:     ptr(at(10, 0)),
		},
		{
			name:    "invalid range falls through to start marker",
			message: "log work from 9 to 25",
			source:  SourceStartToNow,
			start:   ptr(at(9, 0)),
			end:     ptr(testNow),
		},
		{
			name:    "start plus duration",
			message: "log meeting at 2pm for 90 minutes",
			source:  SourceStartPlusDuration,
			start:   ptr(at(14, 0)),
			end:     ptr(at(15, 30)),
		},
		{
			name:    "end minus duration",
			message: "log run until 7am for 30 minutes",
			source:  SourceEndMinusDuration,
			start:   ptr(at(6, 30)),
			end:     ptr(at(7, 0)),
		},
		{
			name:          "duration after last event",
			message:       "track meeting for 2 hours",
			withLastEvent: true,
			source:        SourceLastEventPlusDuration,
			start:         ptr(testLastEvent),
			end:           ptr(testLastEvent.Add(2 * time.Hour)),
		},
		{
			name:    "duration before now",
			message: "track meeting for 2 hours",
			source:  SourceCurrentMinusDuration,
			start:   ptr(testNow.Add(-2 * time.Hour)),
			end:     ptr(testNow),
		},
		{
			name:    "start to now",
			message: "log coding since 9am",
			offset:  -420,
			source:  SourceStartToNow,
			start:   ptr(at(16, 0)),
			end:     ptr(testNow),
		},
		{
			name:          "last event to end",
			message:       "log errands till 5pm",
			withLastEvent: true,
			source:        SourceLastEventToEnd,
			start:         ptr(testLastEvent),
			end:           ptr(at(17, 0)),
		},
		{
			name:    "unknown to end",
			message: "log errands till 5pm",
			source:  SourceUnknownToEnd,
			end:     ptr(at(17, 0)),
		},
		{
			name:          "last event to now",
			message:       "log lunch",
			withLastEvent: true,
			source:        SourceLastEventToNow,
			start:         ptr(testLastEvent),
			end:           ptr(testNow),
		},
		{
			name:    "end only",
			message: "log lunch",
			source:  SourceEndOnly,
			end:     ptr(testNow),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := TimeContext{CurrentTime: testNow, UTCOffsetMinutes: tt.offset}
			if tt.withLastEvent {
				ctx.LastEventEndTime = ptr(testLastEvent)
			}

			info := ExtractTimeInfo(tt.message, ctx)
			assert.Equal(t, tt.source, info.Source)
			assertInstant(t, tt.start, info.StartTime, "start")
			assertInstant(t, tt.end, info.EndTime, "end")
		})
	}
}

func TestExtractTimeInfo_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("PDT", -7*60*60)
	last := testLastEvent.In(loc)
	info := ExtractTimeInfo("track meeting for 2 hours", TimeContext{
		LastEventEndTime: &last,
		CurrentTime:      testNow.In(loc),
		UTCOffsetMinutes: -420,
	})

	require.NotNil(t, info.StartTime)
	require.NotNil(t, info.EndTime)
	assert.Equal(t, time.UTC, info.StartTime.Location())
	assert.Equal(t, time.UTC, info.EndTime.Location())
	assert.True(t, testLastEvent.Equal(*info.StartTime))
}

func TestExtractTimeInfo_RangeIgnoresSurroundingText(t *testing.T) {
	ctx := TimeContext{CurrentTime: testNow, UTCOffsetMinutes: -420}
	base := ExtractTimeInfo("log x from 9am to 11am", ctx)

	for _, message := range []string{
		"log coding from 9am to 11am",
		"track the long and winding review for project 7 from 9am to 11am",
		"from 9am to 11am I was coding for 3 hours",
		"note that from 9am to 11am, until lunch, I wrote docs",
	} {
		t.Run(message, func(t *testing.T) {
			info := ExtractTimeInfo(message, ctx)
			assert.Equal(t, SourceExplicitRange, info.Source)
			assertInstant(t, base.StartTime, info.StartTime, "start")
			assertInstant(t, base.EndTime, info.EndTime, "end")
		})
	}
}

func TestTimeRules_Independently(t *testing.T) {
	q := timeQuery{message: "log lunch", ctx: TimeContext{CurrentTime: testNow}}
	for _, r := range timeRules {
		_, ok := r.apply(q)
		assert.False(t, ok, r.name)
	}

	q.message = "log coding from 9 to 11 for 2 hours"
	_, ok := resolveExplicitRange(q)
	assert.True(t, ok)
	_, ok = resolveDurationOnly(q)
	assert.True(t, ok)
	_, ok = resolveSingleMarker(q)
	assert.True(t, ok)
}

func ptr[T any](v T) *T {
	return &v
}

func assertInstant(t *testing.T, expected, actual *time.Time, label string) {
	t.Helper()
	if expected == nil {
		assert.Nil(t, actual, label)
		return
	}
	require.NotNil(t, actual, label)
	assert.True(t, expected.Equal(*actual), "%s: got %s, want %s", label, actual, expected)
}
