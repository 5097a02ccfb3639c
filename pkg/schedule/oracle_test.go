package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday
func monday(hour int, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestNextEpisodeSameDayBeforeBroadcast(t *testing.T) {
	sched := Schedule{
		"monday": {{Time: "10:00", Title: "X"}},
	}

	cd, ok := NextEpisode(sched, "X", monday(9, 0))
	require.True(t, ok)
	assert.Equal(t, 0, cd.Days)
	assert.Equal(t, 1, cd.Hours)
	assert.Equal(t, 0, cd.Minutes)
}

func TestNextEpisodeSameDayAfterBroadcastRollsToNextWeek(t *testing.T) {
	sched := Schedule{
		"monday": {{Time: "10:00", Title: "X"}},
	}

	// 11:00 has passed the 10:00 slot, next occurrence is next Monday
	cd, ok := NextEpisode(sched, "X", monday(11, 0))
	require.True(t, ok)
	assert.Equal(t, 6, cd.Days)
	assert.Equal(t, 23, cd.Hours)
	assert.Equal(t, 0, cd.Minutes)
}

func TestNextEpisodeLaterInWeek(t *testing.T) {
	sched := Schedule{
		"wednesday": {{Time: "12:30", Title: "Sousou no Frieren"}},
	}

	cd, ok := NextEpisode(sched, "Frieren", monday(9, 0))
	require.True(t, ok)
	assert.Equal(t, 2, cd.Days)
	assert.Equal(t, 3, cd.Hours)
	assert.Equal(t, 30, cd.Minutes)
}

func TestNextEpisodeEarlierWeekdayWrapsForward(t *testing.T) {
	sched := Schedule{
		"sunday": {{Time: "00:30", Title: "X"}},
	}

	// from Monday 09:00, Sunday 00:30 is 5 days 15.5 hours away
	cd, ok := NextEpisode(sched, "X", monday(9, 0))
	require.True(t, ok)
	assert.Equal(t, 5, cd.Days)
	assert.Equal(t, 15, cd.Hours)
	assert.Equal(t, 30, cd.Minutes)
}

func TestNextEpisodePicksEarliestAcrossMatches(t *testing.T) {
	sched := Schedule{
		"friday":  {{Time: "10:00", Title: "Show X Season 2"}},
		"tuesday": {{Time: "18:00", Title: "Show X Specials"}},
	}

	cd, ok := NextEpisode(sched, "Show X", monday(9, 0))
	require.True(t, ok)
	assert.Equal(t, 1, cd.Days)
	assert.Equal(t, 9, cd.Hours)
}

func TestNextEpisodeNoMatch(t *testing.T) {
	sched := Schedule{
		"monday": {{Time: "10:00", Title: "Something Else"}},
	}

	_, ok := NextEpisode(sched, "Show X", monday(9, 0))
	assert.False(t, ok)
}

func TestNextEpisodeNilSchedule(t *testing.T) {
	_, ok := NextEpisode(nil, "Show X", monday(9, 0))
	assert.False(t, ok)
}

func TestNextEpisodeMalformedEntriesSkipped(t *testing.T) {
	sched := Schedule{
		"monday":   {{Time: "not-a-time", Title: "X"}},
		"notaday":  {{Time: "10:00", Title: "X"}},
		"thursday": {{Time: "08:15", Title: "X"}},
	}

	cd, ok := NextEpisode(sched, "X", monday(9, 0))
	require.True(t, ok)
	assert.Equal(t, 2, cd.Days)
	assert.Equal(t, 23, cd.Hours)
	assert.Equal(t, 15, cd.Minutes)
}
