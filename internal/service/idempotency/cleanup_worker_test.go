package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

// expiringRepo имитирует хранилище с фиксированным числом просроченных
// записей; DeleteExpired честно уважает limit.
type expiringRepo struct {
	mu        sync.Mutex
	expired   int
	failWith  error
	callCount int
}

func (s *expiringRepo) CreateProcessing(string, string, time.Time) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *expiringRepo) Get(string) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *expiringRepo) MarkDone(string, []byte, int) error {
	panic("not implemented")
}

func (s *expiringRepo) MarkFailed(string, []byte, int) error {
	panic("not implemented")
}

func (s *expiringRepo) DeleteExpired(_ time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	if s.failWith != nil {
		return 0, s.failWith
	}

	deleted := s.expired
	if limit > 0 && deleted > limit {
		deleted = limit
	}
	s.expired -= deleted
	return deleted, nil
}

func (s *expiringRepo) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

var _ domain.IdempotencyRepository = (*expiringRepo)(nil)

func TestCleanupWorker_DeleteExpiredDrainsInBatches(t *testing.T) {
	t.Parallel()

	repo := &expiringRepo{expired: 5}
	worker := NewCleanupWorker(repo, WithBatchSize(2))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 5 {
		t.Fatalf("unexpected deleted total: got=%d want=5", deleted)
	}

	// Порции 2+2+1: последняя неполная порция останавливает цикл.
	if calls := repo.calls(); calls != 3 {
		t.Fatalf("unexpected delete calls: got=%d want=3", calls)
	}
}

func TestCleanupWorker_DeleteExpiredPropagatesError(t *testing.T) {
	t.Parallel()

	repo := &expiringRepo{failWith: errors.New("storage down")}
	worker := NewCleanupWorker(repo, WithBatchSize(10))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatal("expected DeleteExpired error")
	}
	if deleted != 0 {
		t.Fatalf("unexpected deleted total: got=%d want=0", deleted)
	}
}

func TestCleanupWorker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	repo := &expiringRepo{}
	worker := NewCleanupWorker(
		repo,
		WithInterval(5*time.Millisecond),
		WithBatchSize(10),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}

	if repo.calls() == 0 {
		t.Fatal("expected cleanup to run at least once")
	}
}

func TestCleanupWorker_RunWithoutRepoReturns(t *testing.T) {
	t.Parallel()

	worker := NewCleanupWorker(nil, WithInterval(time.Millisecond))

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without repo must return immediately")
	}
}
