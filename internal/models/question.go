package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is a live prediction question. Status only moves forward along
// DRAFT -> OPEN -> CLOSED -> RESOLVED; see package lifecycle.
type Question struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SeasonID uint64 `gorm:"not null;index" json:"season_id"`

	// CandidateID is set when the question was promoted from a candidate.
	// Unique so that promoting the same candidate twice yields one question.
	CandidateID *uint64 `gorm:"uniqueIndex" json:"candidate_id,omitempty"`

	Ticker     *string        `gorm:"type:varchar(40);index" json:"ticker,omitempty"`
	Prompt     string         `gorm:"type:varchar(1000);not null" json:"prompt"`
	Pros       datatypes.JSON `gorm:"type:jsonb" json:"pros"`
	Cons       datatypes.JSON `gorm:"type:jsonb" json:"cons"`
	Importance string         `gorm:"type:varchar(2000)" json:"importance,omitempty"`
	Impact     string         `gorm:"type:varchar(2000)" json:"impact,omitempty"`

	ClosesAt time.Time `gorm:"type:timestamptz;not null;index" json:"closes_at"`
	Status   string    `gorm:"type:varchar(20);not null;index" json:"status"`

	OpenedAt   *time.Time `gorm:"type:timestamptz" json:"opened_at,omitempty"`
	ClosedAt   *time.Time `gorm:"type:timestamptz" json:"closed_at,omitempty"`
	ResolvedAt *time.Time `gorm:"type:timestamptz" json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}
