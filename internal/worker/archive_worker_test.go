package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gopherai-interview/internal/blobstore"
	"gopherai-interview/internal/model"
)

type fakeRecords struct {
	stored  []model.PracticeRecord
	archive map[string]bool
	err     error
}

func (f *fakeRecords) CreateBatch(records []model.PracticeRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, records...)
	if f.archive == nil {
		f.archive = map[string]bool{}
	}
	for _, r := range records {
		f.archive[r.ArchiveID] = true
	}
	return nil
}

func (f *fakeRecords) ExistsArchive(id string) (bool, error) {
	return f.archive[id], nil
}

type fakeBlobs struct {
	names []string
}

func (f *fakeBlobs) Save(_ context.Context, userID, sessionType string, _ any) (string, error) {
	name := blobstore.BlobName(userID, sessionType, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	f.names = append(f.names, name)
	return name, nil
}

func (f *fakeBlobs) List(context.Context, string, string) ([]string, error) { return f.names, nil }

func snapshot(t *testing.T) []byte {
	t.Helper()
	total := 72.0
	body, err := json.Marshal(model.ArchiveEvent{
		ArchiveID: "a-1",
		UserID:    7,
		QA: []model.QARecord{
			{Mode: "interview", Question: "q1", Answer: "a1", Evaluation: model.Evaluation{TotalScore: &total}},
			{Question: "q2", Answer: "a2"},
		},
		ArchivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleStoresRecordsAndBlob(t *testing.T) {
	records := &fakeRecords{}
	blobs := &fakeBlobs{}
	w := NewArchiveWorker(nil, records, blobs, "q", nil)

	if err := w.Handle(context.Background(), snapshot(t)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(records.stored) != 2 {
		t.Fatalf("stored = %d", len(records.stored))
	}
	if records.stored[0].TotalScore != 72 || records.stored[1].Mode != "study" {
		t.Errorf("records = %+v", records.stored)
	}
	if len(blobs.names) != 1 || blobs.names[0] != "7/interview_sessions/20250102_030405.json" {
		t.Errorf("blobs = %v", blobs.names)
	}

	// redelivery is a no-op
	if err := w.Handle(context.Background(), snapshot(t)); err != nil {
		t.Fatalf("second Handle() error = %v", err)
	}
	if len(records.stored) != 2 || len(blobs.names) != 1 {
		t.Errorf("redelivered snapshot was stored again")
	}
}

func TestHandleErrors(t *testing.T) {
	w := NewArchiveWorker(nil, &fakeRecords{}, nil, "q", nil)
	if err := w.Handle(context.Background(), []byte("{")); !errors.Is(err, ErrPoisonMessage) {
		t.Errorf("decode error should be poison, got %v", err)
	}
	if err := w.Handle(context.Background(), []byte(`{"archive_id":""}`)); !errors.Is(err, ErrPoisonMessage) {
		t.Errorf("missing id should be poison, got %v", err)
	}

	failing := NewArchiveWorker(nil, &fakeRecords{err: errors.New("db down")}, nil, "q", nil)
	err := failing.Handle(context.Background(), snapshot(t))
	if err == nil || errors.Is(err, ErrPoisonMessage) {
		t.Errorf("storage failure should be retryable, got %v", err)
	}
}

type fakeDelivery struct {
	acked, nacked, requeued bool
}

func (d *fakeDelivery) Ack(bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_ bool, requeue bool) error {
	d.nacked, d.requeued = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	w := NewArchiveWorker(nil, &fakeRecords{}, nil, "q", nil)
	failing := NewArchiveWorker(nil, &fakeRecords{err: errors.New("db down")}, nil, "q", nil)

	ok := &fakeDelivery{}
	w.settle("m1", ok, w.Handle(context.Background(), snapshot(t)))
	if !ok.acked || ok.nacked {
		t.Errorf("stored snapshot: %+v", ok)
	}

	poison := &fakeDelivery{}
	w.settle("m2", poison, w.Handle(context.Background(), []byte("not json")))
	if !poison.nacked || poison.requeued {
		t.Errorf("poison message should be dropped: %+v", poison)
	}

	retry := &fakeDelivery{}
	failing.settle("m3", retry, failing.Handle(context.Background(), snapshot(t)))
	if !retry.nacked || !retry.requeued {
		t.Errorf("storage failure should be requeued: %+v", retry)
	}
}

func TestHandleWithoutBlobStorage(t *testing.T) {
	records := &fakeRecords{}
	w := NewArchiveWorker(nil, records, blobstore.Nop{}, "q", nil)
	if err := w.Handle(context.Background(), snapshot(t)); err != nil {
		t.Fatalf("disabled storage should not fail the snapshot: %v", err)
	}
}
