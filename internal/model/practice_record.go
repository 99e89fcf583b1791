package model

import "time"

// PracticeRecord is an archived answered question.
type PracticeRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ArchiveID  string    `gorm:"size:36;not null;index" json:"archive_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Mode       string    `gorm:"size:16;not null;index" json:"mode"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	TotalScore float64   `gorm:"not null" json:"total_score"`
	Evaluation string    `gorm:"type:json;not null" json:"evaluation"`
	AnsweredAt time.Time `gorm:"not null" json:"answered_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArchiveEvent is the queue payload for a session snapshot.
type ArchiveEvent struct {
	ArchiveID  string          `json:"archive_id"`
	UserID     uint            `json:"user_id"`
	Profile    *StudentProfile `json:"profile,omitempty"`
	QA         []QARecord      `json:"qa"`
	ArchivedAt time.Time       `json:"archived_at"`
}
