package models

import "time"

// SessionStats holds the performance metrics of one analysed workout session.
// Rows are written by the ingestion pipeline; this service only reads them.
type SessionStats struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Duration     int       `gorm:"not null" json:"duration"`
	Distance     float64   `gorm:"not null" json:"distance"`
	Sprint       int       `gorm:"not null" json:"sprint"`
	Coverage     float64   `gorm:"not null" json:"coverage"`
	SpeedMax     float64   `gorm:"not null" json:"speed_max"`
	SpeedAvg     float64   `gorm:"not null" json:"speed_avg"`
	AgilityRatio float64   `gorm:"not null" json:"agility_ratio"`
	Rate         float64   `gorm:"not null" json:"rate"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (SessionStats) TableName() string { return "analysis_session_stats" }
