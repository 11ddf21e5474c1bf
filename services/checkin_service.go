package services

import (
	"context"
	"errors"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/bidmarket/checkin-service/models"
	"github.com/bidmarket/checkin-service/utils"
)

var (
	// ErrAlreadyCheckedIn means the user already holds today's record.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	// ErrClockSkew means the last record is dated after the resolved today.
	// That is a data-integrity fault and is never silently corrected.
	ErrClockSkew = errors.New("last check-in record is dated in the future")
)

// CheckinResult reports the outcome of a successful check-in.
type CheckinResult struct {
	ConsecutiveDays int              `json:"consecutive_days"`
	RewardPoints    int              `json:"reward_points"`
	DailyReward     DailyReward      `json:"daily_reward"`
	IsMilestone     bool             `json:"is_milestone"`
	MilestoneReward *MilestoneReward `json:"milestone_reward,omitempty"`
}

// StatusView is the live check-in state for a user. ConsecutiveDays is
// lapse-aware: it reports 0 once the last record is more than one day old,
// while the historical rows keep their original values.
type StatusView struct {
	IsCheckedToday    bool           `json:"is_checked_today"`
	CanCheckin        bool           `json:"can_checkin"`
	ConsecutiveDays   int            `json:"consecutive_days"`
	TotalCheckinDays  int64          `json:"total_checkin_days"`
	MonthCheckinDates []int          `json:"month_checkin_dates"`
	TodayReward       DailyReward    `json:"today_reward"`
	NextMilestone     *NextMilestone `json:"next_milestone,omitempty"`
}

// StatisticsView aggregates a user's whole ledger.
type StatisticsView struct {
	TotalCheckinDays       int64 `json:"total_checkin_days"`
	TotalPoints            int64 `json:"total_points"`
	MaxConsecutiveDays     int   `json:"max_consecutive_days"`
	CurrentConsecutiveDays int   `json:"current_consecutive_days"`
	MonthCheckinDays       int64 `json:"month_checkin_days"`
}

// CalendarDay is one checked-in day inside a month view.
type CalendarDay struct {
	ConsecutiveDays int  `json:"consecutive_days"`
	RewardPoints    int  `json:"reward_points"`
	IsMilestone     bool `json:"is_milestone"`
}

// CalendarView maps day-of-month to the record written that day.
type CalendarView struct {
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Days      map[int]CalendarDay `json:"days"`
	TotalDays int                 `json:"total_days"`
}

// HistoryPage is one page of check-in records, most recent first.
type HistoryPage struct {
	Records    []models.CheckinRecord `json:"records"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int64                  `json:"total_pages"`
}

// CheckinService owns the check-in ledger and its derived views. Streak
// arithmetic happens exactly once, inside Checkin; every view reads the
// persisted consecutive-day counts and never recomputes them.
type CheckinService struct {
	db       *gorm.DB
	clock    *DayClock
	schedule *RewardSchedule
}

// NewCheckinService wires the ledger against a database handle, a day clock
// and an immutable reward schedule.
func NewCheckinService(db *gorm.DB, clock *DayClock, schedule *RewardSchedule) *CheckinService {
	return &CheckinService{db: db, clock: clock, schedule: schedule}
}

// Schedule exposes the reward schedule for read-only consumers.
func (s *CheckinService) Schedule() *RewardSchedule {
	return s.schedule
}

// Clock exposes the day clock so callers can key caches by calendar day.
func (s *CheckinService) Clock() *DayClock {
	return s.clock
}

// Checkin writes today's record for the user. The existence check, the last
// record read and the insert run in one transaction; the unique index on
// (user_id, checkin_date) backstops concurrent calls, so a lost race comes
// back as ErrAlreadyCheckedIn rather than a duplicate row.
func (s *CheckinService) Checkin(ctx context.Context, userID uint) (*CheckinResult, error) {
	today := s.clock.Today()

	var result *CheckinResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.CheckinRecord{}).
			Where("user_id = ? AND checkin_date >= ? AND checkin_date < ?", userID, today, today.AddDate(0, 0, 1)).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyCheckedIn
		}

		last, err := lastRecord(tx, userID)
		if err != nil {
			return err
		}

		streak := 1
		if last != nil {
			switch gap := DaysBetween(today, last.CheckinDate); {
			case gap < 0:
				return ErrClockSkew
			case gap == 1:
				streak = last.ConsecutiveDays + 1
			}
		}

		reward, err := s.schedule.RewardFor(streak)
		if err != nil {
			return err
		}
		total := reward.Points
		if reward.IsMilestone {
			total += reward.Milestone.Points
		}

		record := models.CheckinRecord{
			UserID:          userID,
			CheckinDate:     today,
			ConsecutiveDays: streak,
			RewardPoints:    total,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyCheckedIn
			}
			return err
		}

		result = &CheckinResult{
			ConsecutiveDays: streak,
			RewardPoints:    total,
			DailyReward:     reward,
			IsMilestone:     reward.IsMilestone,
			MilestoneReward: reward.Milestone,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClockSkew) && utils.Sugar != nil {
			utils.Sugar.Errorw("check-in clock skew detected",
				"user_id", userID, "today", today.Format("2006-01-02"))
		}
		return nil, err
	}

	if utils.Sugar != nil {
		utils.Sugar.Infow("check-in recorded",
			"user_id", userID,
			"day", today.Format("2006-01-02"),
			"streak", result.ConsecutiveDays,
			"points", result.RewardPoints,
			"milestone", result.IsMilestone)
	}
	return result, nil
}

// LastRecord returns the user's most recent record by check-in date, or nil.
func (s *CheckinService) LastRecord(ctx context.Context, userID uint) (*models.CheckinRecord, error) {
	var rec *models.CheckinRecord
	err := retryRead(func() error {
		var e error
		rec, e = lastRecord(s.db.WithContext(ctx), userID)
		return e
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Status builds the live view for a user.
func (s *CheckinService) Status(ctx context.Context, userID uint) (*StatusView, error) {
	today := s.clock.Today()
	db := s.db.WithContext(ctx)

	var view *StatusView
	err := retryRead(func() error {
		last, err := lastRecord(db, userID)
		if err != nil {
			return err
		}

		live := 0
		checkedToday := false
		if last != nil {
			switch DaysBetween(today, last.CheckinDate) {
			case 0:
				live = last.ConsecutiveDays
				checkedToday = true
			case 1:
				live = last.ConsecutiveDays
			}
		}

		var total int64
		if err := db.Model(&models.CheckinRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			return err
		}

		monthDates, err := monthDays(db, userID, today.Year(), int(today.Month()))
		if err != nil {
			return err
		}

		// The streak the user would reach by checking in now. When today's
		// record already exists the projection is today's streak itself.
		projected := live + 1
		if checkedToday {
			projected = live
		}
		todayReward, err := s.schedule.RewardFor(projected)
		if err != nil {
			return err
		}

		view = &StatusView{
			IsCheckedToday:    checkedToday,
			CanCheckin:        !checkedToday,
			ConsecutiveDays:   live,
			TotalCheckinDays:  total,
			MonthCheckinDates: monthDates,
			TodayReward:       todayReward,
			NextMilestone:     s.schedule.NextMilestone(projected),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Statistics aggregates the user's full ledger.
func (s *CheckinService) Statistics(ctx context.Context, userID uint) (*StatisticsView, error) {
	today := s.clock.Today()
	db := s.db.WithContext(ctx)

	var view *StatisticsView
	err := retryRead(func() error {
		var stats StatisticsView

		if err := db.Model(&models.CheckinRecord{}).Where("user_id = ?", userID).Count(&stats.TotalCheckinDays).Error; err != nil {
			return err
		}
		if err := db.Model(&models.CheckinRecord{}).Where("user_id = ?", userID).
			Select("COALESCE(SUM(reward_points),0)").Scan(&stats.TotalPoints).Error; err != nil {
			return err
		}
		if err := db.Model(&models.CheckinRecord{}).Where("user_id = ?", userID).
			Select("COALESCE(MAX(consecutive_days),0)").Scan(&stats.MaxConsecutiveDays).Error; err != nil {
			return err
		}

		last, err := lastRecord(db, userID)
		if err != nil {
			return err
		}
		if last != nil {
			if gap := DaysBetween(today, last.CheckinDate); gap == 0 || gap == 1 {
				stats.CurrentConsecutiveDays = last.ConsecutiveDays
			}
		}

		start, end := monthRange(today.Year(), int(today.Month()))
		if err := db.Model(&models.CheckinRecord{}).
			Where("user_id = ? AND checkin_date >= ? AND checkin_date < ?", userID, start, end).
			Count(&stats.MonthCheckinDays).Error; err != nil {
			return err
		}

		view = &stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// History returns one page of records, most recent first. Pagination bounds
// are enforced at the HTTP boundary; page and pageSize arrive validated.
func (s *CheckinService) History(ctx context.Context, userID uint, page, pageSize int) (*HistoryPage, error) {
	db := s.db.WithContext(ctx)

	var result *HistoryPage
	err := retryRead(func() error {
		var total int64
		if err := db.Model(&models.CheckinRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			return err
		}

		var records []models.CheckinRecord
		if err := db.Where("user_id = ?", userID).
			Order("checkin_date DESC").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&records).Error; err != nil {
			return err
		}

		result = &HistoryPage{
			Records:    records,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Calendar maps every checked-in day of a month to its stored record.
// IsMilestone is recomputed from the schedule against the stored streak;
// the schedule is deterministic, so it matches what was true at write time.
func (s *CheckinService) Calendar(ctx context.Context, userID uint, year, month int) (*CalendarView, error) {
	db := s.db.WithContext(ctx)
	start, end := monthRange(year, month)

	var view *CalendarView
	err := retryRead(func() error {
		var records []models.CheckinRecord
		if err := db.Where("user_id = ? AND checkin_date >= ? AND checkin_date < ?", userID, start, end).
			Find(&records).Error; err != nil {
			return err
		}

		days := make(map[int]CalendarDay, len(records))
		for _, rec := range records {
			days[NormalizeDay(rec.CheckinDate).Day()] = CalendarDay{
				ConsecutiveDays: rec.ConsecutiveDays,
				RewardPoints:    rec.RewardPoints,
				IsMilestone:     s.schedule.IsMilestone(rec.ConsecutiveDays),
			}
		}

		view = &CalendarView{Year: year, Month: month, Days: days, TotalDays: len(days)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func lastRecord(tx *gorm.DB, userID uint) (*models.CheckinRecord, error) {
	var rec models.CheckinRecord
	err := tx.Where("user_id = ?", userID).Order("checkin_date DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func monthDays(tx *gorm.DB, userID uint, year, month int) ([]int, error) {
	start, end := monthRange(year, month)
	var records []models.CheckinRecord
	if err := tx.Where("user_id = ? AND checkin_date >= ? AND checkin_date < ?", userID, start, end).
		Order("checkin_date ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	days := make([]int, 0, len(records))
	for _, rec := range records {
		days = append(days, NormalizeDay(rec.CheckinDate).Day())
	}
	return days, nil
}

func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// retryRead runs an idempotent read, retrying once on storage failure.
// Writes are never retried here: a blind retry on an ambiguous check-in
// insert could award twice.
func retryRead(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	return fn()
}

// isDuplicateKey recognizes a violated (user_id, checkin_date) unique index
// across the translated gorm error, the raw MySQL error and the sqlite
// driver used in tests.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
