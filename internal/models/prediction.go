package models

import "time"

const (
	ChoiceO = "O"
	ChoiceX = "X"
)

// Prediction is one user's immutable binary choice on a question.
type Prediction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"not null;uniqueIndex:uniq_prediction_user_question,priority:1;index" json:"user_id"`
	QuestionID  uint64    `gorm:"not null;uniqueIndex:uniq_prediction_user_question,priority:2;index" json:"question_id"`
	Choice      string    `gorm:"type:varchar(1);not null" json:"choice"`
	SubmittedAt time.Time `gorm:"type:timestamptz;not null" json:"submitted_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}
