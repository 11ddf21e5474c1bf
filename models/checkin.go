package models

import "time"

// CheckinRecord stores one daily check-in per user. Rows are append-only:
// a record is written exactly once by a successful check-in and is never
// updated or deleted afterwards. ConsecutiveDays is the streak length as of
// that day, fixed at write time; a later lapse does not rewrite history.
type CheckinRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:uniq_user_checkin_date,priority:1" json:"user_id"`
	CheckinDate     time.Time `gorm:"type:date;not null;uniqueIndex:uniq_user_checkin_date,priority:2" json:"checkin_date"`
	ConsecutiveDays int       `gorm:"not null" json:"consecutive_days"`
	RewardPoints    int       `gorm:"not null" json:"reward_points"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName pins the table name independent of gorm pluralization rules.
func (CheckinRecord) TableName() string {
	return "checkin_records"
}
