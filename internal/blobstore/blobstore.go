// Package blobstore archives practice sessions as JSON documents in object storage.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopherai-interview/internal/model"
)

var ErrStorageDisabled = errors.New("blob storage is not configured")

const (
	TypeQARecords         = "qa_records"
	TypeInterviewSessions = "interview_sessions"
)

type Store interface {
	Save(ctx context.Context, userID, sessionType string, data any) (string, error)
	List(ctx context.Context, userID, sessionType string) ([]string, error)
}

// Envelope wraps every stored document.
type Envelope struct {
	UserID      string    `json:"user_id"`
	SessionType string    `json:"session_type"`
	Timestamp   time.Time `json:"timestamp"`
	Data        any       `json:"data"`
}

// BlobName is {user}/{type}/{YYYYMMDD_HHMMSS}.json.
func BlobName(userID, sessionType string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", userID, sessionType, at.Format("20060102_150405"))
}

// Prefix lists every type for the user when sessionType is empty.
func Prefix(userID, sessionType string) string {
	if sessionType == "" {
		return userID + "/"
	}
	return userID + "/" + sessionType + "/"
}

func encode(userID, sessionType string, at time.Time, data any) ([]byte, error) {
	payload, err := json.MarshalIndent(Envelope{
		UserID:      userID,
		SessionType: sessionType,
		Timestamp:   at,
		Data:        data,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal blob envelope failed: %w", err)
	}
	return payload, nil
}

// Nop is used when no connection string is configured.
type Nop struct{}

func (Nop) Save(context.Context, string, string, any) (string, error) {
	return "", ErrStorageDisabled
}

func (Nop) List(context.Context, string, string) ([]string, error) {
	return nil, ErrStorageDisabled
}

type qaRecordDoc struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Evaluation model.Evaluation `json:"evaluation"`
	Timestamp  time.Time        `json:"timestamp"`
}

func SaveQARecord(ctx context.Context, s Store, userID string, rec model.QARecord) (string, error) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return s.Save(ctx, userID, TypeQARecords, qaRecordDoc{
		Question:   rec.Question,
		Answer:     rec.Answer,
		Evaluation: rec.Evaluation,
		Timestamp:  ts,
	})
}

type interviewSessionDoc struct {
	Profile        *model.StudentProfile `json:"profile"`
	QAList         []model.QARecord      `json:"qa_list"`
	TotalQuestions int                   `json:"total_questions"`
	AverageScore   float64               `json:"average_score"`
}

// SaveInterviewSession stores the whole session. Records without a total
// score count as zero in the average.
func SaveInterviewSession(ctx context.Context, s Store, userID string, qa []model.QARecord, profile *model.StudentProfile) (string, error) {
	var sum float64
	for _, r := range qa {
		sum += r.Evaluation.Total()
	}
	avg := 0.0
	if len(qa) > 0 {
		avg = sum / float64(len(qa))
	}
	if qa == nil {
		qa = []model.QARecord{}
	}
	return s.Save(ctx, userID, TypeInterviewSessions, interviewSessionDoc{
		Profile:        profile,
		QAList:         qa,
		TotalQuestions: len(qa),
		AverageScore:   avg,
	})
}
