package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

// contactRepositoryInMemory — in-memory хранилище обращений контактной формы.
type contactRepositoryInMemory struct {
	mu    sync.RWMutex
	items []domain.ContactSubmission
}

// NewContactRepository возвращает in-memory репозиторий обращений.
func NewContactRepository() domain.ContactRepository {
	return &contactRepositoryInMemory{}
}

// Add валидирует и сохраняет обращение, присваивая ID и время.
func (r *contactRepositoryInMemory) Add(submission domain.ContactSubmission) (domain.ContactSubmission, error) {
	submission.Name = strings.TrimSpace(submission.Name)
	submission.Message = strings.TrimSpace(submission.Message)

	if submission.Name == "" {
		return domain.ContactSubmission{}, domain.ErrContactNameInvalid
	}
	if submission.Message == "" {
		return domain.ContactSubmission{}, domain.ErrContactMessageInvalid
	}

	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, submission)
	return submission, nil
}

// List возвращает обращения, свежие первыми.
func (r *contactRepositoryInMemory) List() ([]domain.ContactSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ContactSubmission, len(r.items))
	copy(result, r.items)

	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	return result, nil
}

var _ domain.ContactRepository = (*contactRepositoryInMemory)(nil)
