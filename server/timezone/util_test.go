package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "UTC", tz: "UTC"},
		{name: "empty string defaults to UTC", tz: ""},
		{name: "Asia/Shanghai", tz: "Asia/Shanghai"},
		{name: "America/New_York", tz: "America/New_York"},
		{name: "invalid timezone", tz: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, UTC, loc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, loc)
		})
	}
}

func TestOffsetMinutes_DST(t *testing.T) {
	la, err := ParseTimezone("America/Los_Angeles")
	require.NoError(t, err)

	winter := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, -480, OffsetMinutes(la, winter))
	assert.Equal(t, -420, OffsetMinutes(la, summer))

	kolkata, err := ParseTimezone("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, 330, OffsetMinutes(kolkata, summer))
	assert.Equal(t, 0, OffsetMinutes(nil, summer))
}

func TestResolveOffset(t *testing.T) {
	at := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	explicit := -420
	tooFar := 15 * 60

	tests := []struct {
		name     string
		offset   *int
		tz       string
		fallback string
		want     int
		wantErr  bool
	}{
		{name: "explicit offset wins", offset: &explicit, tz: "Asia/Tokyo", want: -420},
		{name: "request zone", tz: "Asia/Tokyo", fallback: "UTC", want: 540},
		{name: "fallback zone", fallback: "Europe/Paris", want: 60},
		{name: "nothing is UTC", want: 0},
		{name: "offset out of range", offset: &tooFar, wantErr: true},
		{name: "bad zone", tz: "Mars/Olympus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOffset(tt.offset, tt.tz, tt.fallback, at)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "+05:30", FormatOffset(330))
	assert.Equal(t, "-07:00", FormatOffset(-420))
	assert.Equal(t, "+00:00", FormatOffset(0))
	assert.Equal(t, UTC, FixedZone(0))

	_, seconds := time.Date(2024, 1, 1, 0, 0, 0, 0, FixedZone(-420)).Zone()
	assert.Equal(t, -420*60, seconds)
}

func TestStartAndEndOfDay(t *testing.T) {
	loc := FixedZone(-420)
	at := time.Date(2024, 3, 16, 2, 0, 0, 0, time.UTC) // 19:00 on the 15th locally

	start := StartOfDay(at, loc)
	assert.True(t, time.Date(2024, 3, 15, 7, 0, 0, 0, time.UTC).Equal(start))

	end := EndOfDay(at, loc)
	assert.Equal(t, 15, end.Day())
	assert.Equal(t, 23, end.Hour())
}

func TestFormatEntryTime(t *testing.T) {
	start := time.Date(2024, 3, 15, 16, 0, 0, 0, time.UTC).Unix()
	end := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC).Unix()

	assert.Equal(t, "2024-03-15 16:00 - 18:00", FormatEntryTime(&start, end, nil))
	assert.Equal(t, "2024-03-15 09:00 - 11:00", FormatEntryTime(&start, end, FixedZone(-420)))
	assert.Equal(t, "2024-03-15 ? - 18:00", FormatEntryTime(nil, end, UTC))
}
