package models

import "time"

// Score holds a user's cumulative points for one season.
type Score struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64 `gorm:"not null;uniqueIndex:uniq_score_user_season,priority:1" json:"user_id"`
	SeasonID    uint64 `gorm:"not null;uniqueIndex:uniq_score_user_season,priority:2;index" json:"season_id"`
	TotalPoints int64  `gorm:"not null;default:0" json:"total_points"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Score) TableName() string {
	return "scores"
}
