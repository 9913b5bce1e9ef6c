package models

import "time"

// Season is a scoring epoch; Score rows accumulate per season.
type Season struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string    `gorm:"type:varchar(120);not null" json:"name"`
	StartAt  time.Time `gorm:"type:timestamptz;not null" json:"start_at"`
	EndAt    time.Time `gorm:"type:timestamptz;not null" json:"end_at"`
	IsActive bool      `gorm:"not null;default:false;index" json:"is_active"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Season) TableName() string {
	return "seasons"
}
