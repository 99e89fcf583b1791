package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"gopherai-interview/internal/blobstore"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/platform/rabbitmq"
)

// ErrPoisonMessage marks deliveries that can never be stored. They are
// dropped; every other failure is requeued.
var ErrPoisonMessage = errors.New("poison archive message")

// RecordStore is the subset of the practice record repository the worker needs.
type RecordStore interface {
	CreateBatch(records []model.PracticeRecord) error
	ExistsArchive(archiveID string) (bool, error)
}

// ArchiveWorker persists session snapshots published by the archive service.
type ArchiveWorker struct {
	conn      *amqp.Connection
	records   RecordStore
	blobs     blobstore.Store
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewArchiveWorker(conn *amqp.Connection, records RecordStore, blobs blobstore.Store, queueName string, logger *slog.Logger) *ArchiveWorker {
	if blobs == nil {
		blobs = blobstore.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveWorker{
		conn:      conn,
		records:   records,
		blobs:     blobs,
		queueName: queueName,
		logger:    logger.With("component", "archive_worker"),
	}
}

func (w *ArchiveWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.settle(d.MessageId, d, w.Handle(workerCtx, d.Body))
			}
		}
	}()

	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *ArchiveWorker) settle(messageID string, d acknowledger, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoisonMessage):
		w.logger.Error("archive snapshot dropped", "message_id", messageID, "error", err)
		_ = d.Nack(false, false)
	default:
		w.logger.Warn("archive snapshot requeued", "message_id", messageID, "error", err)
		_ = d.Nack(false, true)
	}
}

// Handle writes one snapshot. A snapshot that was already stored is skipped.
// Blob storage is best-effort once the rows are committed.
func (w *ArchiveWorker) Handle(ctx context.Context, body []byte) error {
	var event model.ArchiveEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: decode archive event failed: %v", ErrPoisonMessage, err)
	}
	if event.ArchiveID == "" || event.UserID == 0 {
		return fmt.Errorf("%w: archive event missing id or user", ErrPoisonMessage)
	}

	exists, err := w.records.ExistsArchive(event.ArchiveID)
	if err != nil {
		return fmt.Errorf("check archive failed: %w", err)
	}
	if exists {
		w.logger.Info("archive already stored", "archive_id", event.ArchiveID)
		return nil
	}

	records, err := PracticeRecords(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPoisonMessage, err)
	}
	if err := w.records.CreateBatch(records); err != nil {
		return fmt.Errorf("store archive records failed: %w", err)
	}

	blobName, err := blobstore.SaveInterviewSession(ctx, w.blobs, strconv.FormatUint(uint64(event.UserID), 10), event.QA, event.Profile)
	switch {
	case errors.Is(err, blobstore.ErrStorageDisabled):
	case err != nil:
		w.logger.Warn("archive blob upload failed", "archive_id", event.ArchiveID, "error", err)
	default:
		w.logger.Info("archive blob stored", "archive_id", event.ArchiveID, "blob", blobName)
	}

	w.logger.Info("archive stored", "archive_id", event.ArchiveID, "user_id", event.UserID, "records", len(records))
	return nil
}

// PracticeRecords flattens a snapshot into one row per answered question.
func PracticeRecords(event model.ArchiveEvent) ([]model.PracticeRecord, error) {
	records := make([]model.PracticeRecord, 0, len(event.QA))
	for _, qa := range event.QA {
		evaluation, err := json.Marshal(qa.Evaluation)
		if err != nil {
			return nil, fmt.Errorf("marshal evaluation failed: %w", err)
		}
		mode := qa.Mode
		if mode == "" {
			mode = "study"
		}
		records = append(records, model.PracticeRecord{
			ArchiveID:  event.ArchiveID,
			UserID:     event.UserID,
			Mode:       mode,
			Question:   qa.Question,
			Answer:     qa.Answer,
			TotalScore: qa.Evaluation.Total(),
			Evaluation: string(evaluation),
			AnsweredAt: qa.Timestamp,
		})
	}
	return records, nil
}

func (w *ArchiveWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
