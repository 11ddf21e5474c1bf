package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchedule(t *testing.T) *RewardSchedule {
	t.Helper()
	s, err := NewRewardSchedule(
		[]int{5, 10, 15, 20, 25, 30, 40},
		[]int{7, 15, 30, 60, 100, 365},
		[]int{50, 100, 200, 500, 1000, 5000},
	)
	require.NoError(t, err)
	return s
}

func TestRewardForDailyTable(t *testing.T) {
	s := newTestSchedule(t)

	cases := []struct {
		streak int
		points int
	}{
		{1, 5},
		{2, 10},
		{6, 30},
		{7, 40},
		{8, 40}, // past the table, flat at the last entry
		{50, 40},
		{365, 40},
	}
	for _, tc := range cases {
		reward, err := s.RewardFor(tc.streak)
		require.NoError(t, err)
		assert.Equal(t, tc.points, reward.Points, "streak %d", tc.streak)
	}
}

func TestRewardForIsDeterministic(t *testing.T) {
	s := newTestSchedule(t)
	for _, streak := range []int{1, 7, 8, 100, 366} {
		first, err := s.RewardFor(streak)
		require.NoError(t, err)
		second, err := s.RewardFor(streak)
		require.NoError(t, err)
		assert.Equal(t, first, second, "streak %d", streak)
	}
}

func TestRewardForMilestones(t *testing.T) {
	s := newTestSchedule(t)

	for _, day := range []int{7, 15, 30, 60, 100, 365} {
		reward, err := s.RewardFor(day)
		require.NoError(t, err)
		assert.True(t, reward.IsMilestone, "day %d", day)
		require.NotNil(t, reward.Milestone)
		assert.Equal(t, day, reward.Milestone.Days)
		assert.Greater(t, reward.Milestone.Points, reward.Points,
			"milestone bonus must exceed the plain daily reward")
	}

	for _, day := range []int{1, 8, 14, 16, 364, 366} {
		reward, err := s.RewardFor(day)
		require.NoError(t, err)
		assert.False(t, reward.IsMilestone, "day %d", day)
		assert.Nil(t, reward.Milestone)
	}
}

func TestRewardForRejectsInvalidStreak(t *testing.T) {
	s := newTestSchedule(t)
	for _, streak := range []int{0, -1, -100} {
		_, err := s.RewardFor(streak)
		assert.ErrorIs(t, err, ErrInvalidStreak, "streak %d", streak)
	}
}

func TestNextMilestone(t *testing.T) {
	s := newTestSchedule(t)

	next := s.NextMilestone(1)
	require.NotNil(t, next)
	assert.Equal(t, 7, next.Days)
	assert.Equal(t, 6, next.RemainingDays)
	assert.Equal(t, 50, next.Points)

	// at a threshold the next one is the following threshold
	next = s.NextMilestone(7)
	require.NotNil(t, next)
	assert.Equal(t, 15, next.Days)
	assert.Equal(t, 8, next.RemainingDays)

	next = s.NextMilestone(364)
	require.NotNil(t, next)
	assert.Equal(t, 365, next.Days)
	assert.Equal(t, 1, next.RemainingDays)

	// at or beyond the largest threshold there is nothing ahead
	assert.Nil(t, s.NextMilestone(365))
	assert.Nil(t, s.NextMilestone(1000))
}

func TestNewRewardScheduleValidation(t *testing.T) {
	_, err := NewRewardSchedule(nil, []int{7}, []int{50})
	assert.Error(t, err, "empty daily table")

	_, err = NewRewardSchedule([]int{5, 0}, []int{7}, []int{50})
	assert.Error(t, err, "non-positive daily reward")

	_, err = NewRewardSchedule([]int{5}, []int{7, 15}, []int{50})
	assert.Error(t, err, "length mismatch")

	_, err = NewRewardSchedule([]int{5}, []int{15, 7}, []int{50, 100})
	assert.Error(t, err, "descending thresholds")

	_, err = NewRewardSchedule([]int{5}, []int{7, 7}, []int{50, 100})
	assert.Error(t, err, "duplicate thresholds")

	_, err = NewRewardSchedule([]int{5}, []int{7}, []int{0})
	assert.Error(t, err, "non-positive bonus")
}
