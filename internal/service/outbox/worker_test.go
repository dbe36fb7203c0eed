package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

func pendingEvent(id, eventType string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: "booking",
		AggregateID:   "booking-" + id,
		EventType:     eventType,
		Payload:       []byte(`{"status":"pending"}`),
	}
}

type stubOutboxRepo struct {
	pending   []domain.OutboxMessage
	sentIDs   []string
	failedIDs []string
}

func (s *stubOutboxRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	return msg, nil
}

func (s *stubOutboxRepo) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats() (domain.OutboxStats, error) {
	stats := domain.OutboxStats{PendingCount: len(s.pending)}
	if len(s.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (s *stubOutboxRepo) MarkSent(id string) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(id string) error {
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

// stubPublisher собирает опубликованное; sequenceErrors задаёт исходы первых
// вызовов, после их исчерпания действует err.
type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	published      []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		if err != nil {
			return err
		}
		s.published = append(s.published, event)
		return nil
	}
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubPublisher) delivered() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OutboxMessage, len(s.published))
	copy(out, s.published)
	return out
}

var _ domain.OutboxRepository = (*stubOutboxRepo)(nil)
var _ domain.OutboxPublisher = (*stubPublisher)(nil)

func TestWorker_ProcessOnceMarksSent(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{pendingEvent("msg-1", "booking.created")}}
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	if got := repo.sentIDs; len(got) != 1 || got[0] != "msg-1" {
		t.Fatalf("expected msg-1 marked sent, got %v", got)
	}
	if len(repo.failedIDs) != 0 {
		t.Fatalf("expected no failed marks, got %v", repo.failedIDs)
	}
	if got := publisher.delivered(); len(got) != 1 || got[0].EventType != "booking.created" {
		t.Fatalf("unexpected delivered events: %v", got)
	}
}

func TestWorker_ProcessOnceSendsToDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{pendingEvent("msg-2", "booking.cancelled")}}
	publisher := &stubPublisher{err: errors.New("broker refused")}
	dlq := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithDLQPublisher(dlq),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)
	worker.ProcessOnce(context.Background())

	if len(repo.sentIDs) != 0 {
		t.Fatalf("expected no sent marks, got %v", repo.sentIDs)
	}
	if got := repo.failedIDs; len(got) != 1 || got[0] != "msg-2" {
		t.Fatalf("expected msg-2 marked failed, got %v", got)
	}

	dead := dlq.delivered()
	if len(dead) != 1 {
		t.Fatalf("expected 1 DLQ event, got %d", len(dead))
	}

	// DLQ-конверт несёт причину отказа и исходный payload.
	var envelope struct {
		OutboxID     string          `json:"outbox_id"`
		EventType    string          `json:"event_type"`
		PublishError string          `json:"publish_error"`
		Payload      json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(dead[0].Payload, &envelope); err != nil {
		t.Fatalf("decode DLQ payload: %v", err)
	}
	if envelope.OutboxID != "msg-2" || envelope.EventType != "booking.cancelled" {
		t.Fatalf("unexpected DLQ envelope: %+v", envelope)
	}
	if envelope.PublishError == "" {
		t.Fatal("DLQ envelope must carry the publish error")
	}
}

func TestWorker_ProcessOnceRecoversWithinAttempts(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{pendingEvent("msg-3", "booking.created")}}
	publisher := &stubPublisher{
		sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil},
	}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	if got := repo.sentIDs; len(got) != 1 || got[0] != "msg-3" {
		t.Fatalf("expected msg-3 marked sent after retries, got %v", got)
	}
	if len(repo.failedIDs) != 0 {
		t.Fatalf("expected no failed marks, got %v", repo.failedIDs)
	}
}

func TestWorker_RetryBackoffDoubles(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&stubOutboxRepo{}, &stubPublisher{}, WithRetryBaseDelay(10*time.Millisecond))

	for attempt, want := range map[int]time.Duration{
		1: 10 * time.Millisecond,
		2: 20 * time.Millisecond,
		3: 40 * time.Millisecond,
	} {
		if got := worker.retryBackoff(attempt); got != want {
			t.Fatalf("attempt %d: got %v want %v", attempt, got, want)
		}
	}

	zero := NewWorker(&stubOutboxRepo{}, &stubPublisher{}, WithRetryBaseDelay(0))
	if got := zero.retryBackoff(5); got != 0 {
		t.Fatalf("zero base delay must disable backoff, got %v", got)
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(
		&stubOutboxRepo{},
		&stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
