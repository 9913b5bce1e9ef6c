package models

import "time"

const (
	OutcomeO    = "O"
	OutcomeX    = "X"
	OutcomeVoid = "VOID"
)

// Resolution is the ground-truth outcome of a question (1:1).
type Resolution struct {
	QuestionID  uint64    `gorm:"primaryKey;autoIncrement:false" json:"question_id"`
	Outcome     string    `gorm:"type:varchar(10);not null;index" json:"outcome"`
	ResolvedAt  time.Time `gorm:"type:timestamptz;not null" json:"resolved_at"`
	ProofURL    *string   `gorm:"type:text" json:"proof_url,omitempty"`
	Explanation *string   `gorm:"type:varchar(2000)" json:"explanation,omitempty"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Resolution) TableName() string {
	return "resolutions"
}
