package meal

import "time"

type Record struct {
	RecordID        int64     `gorm:"column:record_id;primaryKey" json:"record_id"`
	UserID          int64     `gorm:"column:user_id;not null" json:"user_id"`
	StartTime       time.Time `gorm:"column:start_time;not null" json:"start_time"`
	EndTime         time.Time `gorm:"column:end_time;not null" json:"end_time"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	IntervalMinutes int       `gorm:"column:interval_minutes;not null" json:"interval_minutes"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Record) TableName() string { return "meal_records" }

// UTC returns a copy with every timestamp in UTC.
func (r Record) UTC() Record {
	r.StartTime = r.StartTime.UTC()
	r.EndTime = r.EndTime.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return r
}

type RecordRequest struct {
	StartTime string `json:"start_time" validate:"required,rfc3339"`
	EndTime   string `json:"end_time" validate:"required,rfc3339"`
}

// Filter names a history window ending now.
type Filter string

const (
	FilterDaily   Filter = "daily"
	FilterWeekly  Filter = "weekly"
	FilterMonthly Filter = "monthly"
)

// Window reports the look-back for f. Unknown values, including "", mean no
// filter.
func (f Filter) Window() (time.Duration, bool) {
	switch f {
	case FilterDaily:
		return 24 * time.Hour, true
	case FilterWeekly:
		return 7 * 24 * time.Hour, true
	case FilterMonthly:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
