package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CandidateStatusCandidate = "CANDIDATE"
	CandidateStatusSelected  = "SELECTED"
	CandidateStatusDiscarded = "DISCARDED"
)

const (
	SourceTypeIndex    = "INDEX"
	SourceTypeEarnings = "EARNINGS"
	SourceTypeMacro    = "MACRO"
)

// QuestionCandidate is a generated draft awaiting admin curation.
// Rows are never deleted.
type QuestionCandidate struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateDate time.Time `gorm:"type:date;not null;index" json:"candidate_date"`
	SourceType    string    `gorm:"type:varchar(20);not null;index" json:"source_type"`
	Ticker        *string   `gorm:"type:varchar(40)" json:"ticker,omitempty"`

	Prompt     string         `gorm:"type:varchar(1000);not null" json:"prompt"`
	Pros       datatypes.JSON `gorm:"type:jsonb" json:"pros"`
	Cons       datatypes.JSON `gorm:"type:jsonb" json:"cons"`
	Importance string         `gorm:"type:varchar(2000)" json:"importance,omitempty"`
	Impact     string         `gorm:"type:varchar(2000)" json:"impact,omitempty"`

	Status string `gorm:"type:varchar(20);not null;index" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (QuestionCandidate) TableName() string {
	return "question_candidates"
}
