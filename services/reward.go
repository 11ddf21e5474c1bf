package services

import (
	"errors"
	"fmt"
)

// ErrInvalidStreak is returned for streak values below 1.
var ErrInvalidStreak = errors.New("streak must be at least 1")

// MilestoneReward is a bonus granted when a streak hits a configured length.
type MilestoneReward struct {
	Days        int    `json:"days"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// DailyReward describes the payout for one check-in at a given streak length.
// Milestone is set only when IsMilestone is true.
type DailyReward struct {
	Points      int              `json:"points"`
	Description string           `json:"description"`
	IsMilestone bool             `json:"is_milestone"`
	Milestone   *MilestoneReward `json:"milestone,omitempty"`
}

// NextMilestone points at the nearest milestone strictly ahead of a streak.
type NextMilestone struct {
	Days          int `json:"days"`
	RemainingDays int `json:"remaining_days"`
	Points        int `json:"points"`
}

// RewardSchedule maps streak lengths to rewards. It is immutable after
// construction and touches no storage, so two calls with the same streak
// always produce the same answer.
type RewardSchedule struct {
	daily      []int
	milestones []MilestoneReward
}

// NewRewardSchedule validates and builds a schedule. daily holds the points
// for streak days 1..len(daily); longer streaks earn the last entry. days and
// bonusPoints are parallel lists of milestone thresholds, strictly ascending.
func NewRewardSchedule(daily []int, days []int, bonusPoints []int) (*RewardSchedule, error) {
	if len(daily) == 0 {
		return nil, errors.New("daily reward table must not be empty")
	}
	for i, p := range daily {
		if p <= 0 {
			return nil, fmt.Errorf("daily reward for day %d must be positive, got %d", i+1, p)
		}
	}
	if len(days) != len(bonusPoints) {
		return nil, errors.New("milestone days and points must have the same length")
	}
	milestones := make([]MilestoneReward, len(days))
	for i := range days {
		if days[i] < 1 {
			return nil, fmt.Errorf("milestone day must be at least 1, got %d", days[i])
		}
		if i > 0 && days[i] <= days[i-1] {
			return nil, fmt.Errorf("milestone days must be strictly ascending, got %d after %d", days[i], days[i-1])
		}
		if bonusPoints[i] <= 0 {
			return nil, fmt.Errorf("milestone bonus for day %d must be positive, got %d", days[i], bonusPoints[i])
		}
		milestones[i] = MilestoneReward{
			Days:        days[i],
			Points:      bonusPoints[i],
			Description: fmt.Sprintf("%d-day streak bonus", days[i]),
		}
	}
	return &RewardSchedule{daily: append([]int(nil), daily...), milestones: milestones}, nil
}

// RewardFor returns the payout for checking in at the given streak length.
func (s *RewardSchedule) RewardFor(streak int) (DailyReward, error) {
	if streak < 1 {
		return DailyReward{}, ErrInvalidStreak
	}
	idx := streak - 1
	if idx >= len(s.daily) {
		idx = len(s.daily) - 1
	}
	reward := DailyReward{
		Points:      s.daily[idx],
		Description: fmt.Sprintf("daily check-in, streak day %d", streak),
	}
	if ms := s.milestoneAt(streak); ms != nil {
		reward.IsMilestone = true
		m := *ms
		reward.Milestone = &m
	}
	return reward, nil
}

// NextMilestone returns the smallest configured threshold strictly greater
// than streak, or nil when streak is at or beyond the largest one.
func (s *RewardSchedule) NextMilestone(streak int) *NextMilestone {
	for _, ms := range s.milestones {
		if ms.Days > streak {
			return &NextMilestone{
				Days:          ms.Days,
				RemainingDays: ms.Days - streak,
				Points:        ms.Points,
			}
		}
	}
	return nil
}

// IsMilestone reports whether a streak length equals a configured threshold.
func (s *RewardSchedule) IsMilestone(streak int) bool {
	return s.milestoneAt(streak) != nil
}

// DailyTable returns a copy of the daily points table.
func (s *RewardSchedule) DailyTable() []int {
	return append([]int(nil), s.daily...)
}

// Milestones returns a copy of the configured milestone rewards.
func (s *RewardSchedule) Milestones() []MilestoneReward {
	return append([]MilestoneReward(nil), s.milestones...)
}

func (s *RewardSchedule) milestoneAt(streak int) *MilestoneReward {
	for i := range s.milestones {
		if s.milestones[i].Days == streak {
			return &s.milestones[i]
		}
	}
	return nil
}
