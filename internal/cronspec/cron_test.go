package cronspec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/apierr"
	"github.com/myyrakle/batchman/internal/cronspec"
)

func TestParse_AllWildcardWithYear(t *testing.T) {
	expr, err := cronspec.Parse("* * * * ? *")
	require.NoError(t, err)

	assert.True(t, expr.Minutes.All)
	assert.True(t, expr.Hours.All)
	assert.True(t, expr.DayOfMonth.All)
	assert.True(t, expr.Month.All)
	assert.True(t, expr.DayOfWeek.All) // "?" is a synonym for "*"
	require.NotNil(t, expr.Year)
	assert.True(t, expr.Year.All)
}

func TestParse_StepAndSingle(t *testing.T) {
	expr, err := cronspec.Parse("0 0/15 * * ? *")
	require.NoError(t, err)

	require.Len(t, expr.Minutes.Elements, 1)
	assert.Equal(t, cronspec.Single, expr.Minutes.Elements[0].Kind)
	assert.Equal(t, uint32(0), expr.Minutes.Elements[0].Value)

	require.Len(t, expr.Hours.Elements, 1)
	assert.Equal(t, cronspec.Step, expr.Hours.Elements[0].Kind)
	assert.Equal(t, uint32(0), expr.Hours.Elements[0].Value)
	assert.Equal(t, uint32(15), expr.Hours.Elements[0].Step)

	assert.True(t, expr.DayOfMonth.All)
	assert.True(t, expr.Month.All)
	assert.True(t, expr.DayOfWeek.All)
	assert.Nil(t, expr.Year)
}

func TestParse_WrongFieldCount(t *testing.T) {
	_, err := cronspec.Parse("0 12 * *")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrInvalidCronExpression))
}

func TestParse_StepZeroRejected(t *testing.T) {
	_, err := cronspec.Parse("0/0 * * * *")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrInvalidCronExpression))
}

func TestParse_BackwardsRangeRejected(t *testing.T) {
	_, err := cronspec.Parse("5-1 * * * *")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrInvalidCronExpression))
}

func TestParse_NonIntegerElement(t *testing.T) {
	_, err := cronspec.Parse("abc * * * *")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.ErrInvalidCronExpression))
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"* * * * *",
		"0 12 * * ?",
		"0 0/15 * * ? *",
		"1,2,3 * * * *",
		"5-10 * * * *",
	}
	for _, c := range cases {
		expr, err := cronspec.Parse(c)
		require.NoError(t, err)

		reparsed, err := cronspec.Parse(expr.String())
		require.NoError(t, err)
		assert.Equal(t, expr, reparsed)
	}
}

func TestMatches_NoonDaily(t *testing.T) {
	expr, err := cronspec.Parse("0 12 * * ? *")
	require.NoError(t, err)

	assert.True(t, expr.Matches(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)))
	assert.False(t, expr.Matches(time.Date(2026, 7, 30, 12, 1, 0, 0, time.UTC)))
	assert.False(t, expr.Matches(time.Date(2026, 7, 30, 13, 0, 0, 0, time.UTC)))
}

func TestMatches_Step(t *testing.T) {
	expr, err := cronspec.Parse("0 0/15 * * ? *") // hours 0 and 15
	require.NoError(t, err)
	// Step(0,15) over hours: matches 0, 15 (not 30/45 since hour max 23)
	assert.True(t, expr.Matches(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, expr.Matches(time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC)))
	assert.False(t, expr.Matches(time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)))
}

func TestMatches_StepBelowBaseNeverMatches(t *testing.T) {
	expr, err := cronspec.Parse("10/5 * * * *")
	require.NoError(t, err)
	assert.False(t, expr.Matches(time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)))
	assert.True(t, expr.Matches(time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)))
	assert.True(t, expr.Matches(time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)))
}

func TestMatches_DayOfWeekSundayIsZero(t *testing.T) {
	expr, err := cronspec.Parse("* * * * 0")
	require.NoError(t, err)
	sunday := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Sunday, sunday.Weekday())
	assert.True(t, expr.Matches(sunday))

	monday := sunday.AddDate(0, 0, 1)
	assert.False(t, expr.Matches(monday))
}

func TestSameMinute(t *testing.T) {
	a := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	b := time.Date(2026, 7, 30, 12, 0, 59, 0, time.UTC)
	c := time.Date(2026, 7, 30, 12, 1, 0, 0, time.UTC)
	assert.True(t, cronspec.SameMinute(a, b))
	assert.False(t, cronspec.SameMinute(a, c))
}

func TestShiftForOffset(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	shifted := cronspec.ShiftForOffset(now, -60)
	assert.Equal(t, 11, shifted.Hour())
}
