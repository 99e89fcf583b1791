package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gopherai-interview/internal/model"
	"gopherai-interview/internal/session"
)

const defaultHistoryLimit = 50

// RecordLister reads archived practice records.
type RecordLister interface {
	ListByUserID(userID uint, limit int) ([]model.PracticeRecord, error)
}

type ArchiveReceipt struct {
	ArchiveID string `json:"archive_id"`
	Questions int    `json:"questions"`
}

// ArchiveService hands session snapshots to the archive queue and reads the
// archived history back.
type ArchiveService struct {
	sessions  session.Store
	publisher ArchivePublisher
	records   RecordLister
	logger    *slog.Logger
}

// NewArchiveService accepts a nil publisher when RabbitMQ is disabled and a
// nil lister when MySQL is disabled.
func NewArchiveService(sessions session.Store, publisher ArchivePublisher, records RecordLister, logger *slog.Logger) *ArchiveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveService{
		sessions:  sessions,
		publisher: publisher,
		records:   records,
		logger:    logger.With("service", "archive"),
	}
}

func (s *ArchiveService) Enabled() bool {
	return s.publisher != nil
}

// Archive publishes the answered questions of the session. The session
// itself is left untouched.
func (s *ArchiveService) Archive(ctx context.Context, userID uint) (*ArchiveReceipt, error) {
	if s.publisher == nil {
		return nil, ErrArchiveDisabled
	}
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(st.QA) == 0 {
		return nil, ErrNoRecords
	}

	event := model.ArchiveEvent{
		ArchiveID:  uuid.NewString(),
		UserID:     userID,
		Profile:    st.Profile,
		QA:         st.QA,
		ArchivedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info("session archive published", "user_id", userID, "archive_id", event.ArchiveID, "questions", len(event.QA))
	return &ArchiveReceipt{ArchiveID: event.ArchiveID, Questions: len(event.QA)}, nil
}

// History returns the newest archived answers first.
func (s *ArchiveService) History(userID uint, limit int) ([]model.PracticeRecord, error) {
	if s.records == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}
	return s.records.ListByUserID(userID, limit)
}
