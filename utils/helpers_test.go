package utils

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAlertIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^EA-\d+-[A-Z0-9]{8}$`)

	id := GenerateAlertID()
	require.True(t, pattern.MatchString(id), id)

	parts := strings.Split(id, "-")
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), millis, 5000)
}

func TestGenerateAlertIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateAlertID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSafeRatio(t *testing.T) {
	assert.Equal(t, 0.5, SafeRatio(1, 2))
	assert.Equal(t, 0.0, SafeRatio(5, 0))
	assert.Equal(t, 0.0, SafeRatio(0, 0))
}

func TestSafePercentage(t *testing.T) {
	assert.Equal(t, 50.0, SafePercentage(1, 2))
	assert.InDelta(t, 100*2.0/3.0, SafePercentage(2, 3), 1e-9)
	assert.Equal(t, 0.0, SafePercentage(5, 0))
}

func TestGetTimeRangeForPeriod(t *testing.T) {
	now := time.Now()

	start, end := GetTimeRangeForPeriod("today")
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 24*time.Hour, end.Sub(start))
	assert.False(t, now.Before(start))
	assert.True(t, now.Before(end))

	start, end = GetTimeRangeForPeriod("month")
	assert.Equal(t, 1, start.Day())
	assert.True(t, now.Before(end))

	// Unknown periods fall back to the trailing 24 hours.
	start, end = GetTimeRangeForPeriod("fortnight")
	assert.InDelta(t, 24*time.Hour, end.Sub(start), float64(time.Second))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "d**a@example.com", MaskEmail("dana@example.com"))
	// Too short to mask meaningfully.
	assert.Equal(t, "ab@example.com", MaskEmail("ab@example.com"))
	// Not an email at all.
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}

func TestRoundToDecimalPlaces(t *testing.T) {
	assert.Equal(t, 2.57, RoundToDecimalPlaces(2.5678, 2))
	assert.Equal(t, 3.0, RoundToDecimalPlaces(2.999, 0))
}

func TestCalculateOffsetAndTotalPages(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 20))
	assert.Equal(t, 40, CalculateOffset(3, 20))
	assert.Equal(t, 0, CalculateOffset(0, 20))

	assert.Equal(t, 5, CalculateTotalPages(100, 20))
	assert.Equal(t, 6, CalculateTotalPages(101, 20))
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, UniqueStrings([]string{"a", "b", "a", "c", "b"}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2h 30m 0s", FormatDuration(150*time.Minute))
	assert.Equal(t, "5m 10s", FormatDuration(5*time.Minute+10*time.Second))
}
