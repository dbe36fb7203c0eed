package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository создаёт PostgreSQL-реализацию ContactRepository.
func NewContactRepository(store *Store) domain.ContactRepository {
	return &contactRepository{db: store.DB()}
}

func (r *contactRepository) Add(submission domain.ContactSubmission) (domain.ContactSubmission, error) {
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

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_submissions (id, name, message, submitted_at)
		VALUES ($1,$2,$3,$4)
	`, submission.ID, submission.Name, submission.Message, submission.SubmittedAt); err != nil {
		return domain.ContactSubmission{}, fmt.Errorf("insert contact submission: %w", err)
	}

	return submission, nil
}

func (r *contactRepository) List() ([]domain.ContactSubmission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, message, submitted_at
		FROM contact_submissions
		ORDER BY submitted_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ContactSubmission, 0)
	for rows.Next() {
		var submission domain.ContactSubmission
		if err := rows.Scan(&submission.ID, &submission.Name, &submission.Message, &submission.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan contact submission: %w", err)
		}
		result = append(result, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact submissions: %w", err)
	}

	return result, nil
}

var _ domain.ContactRepository = (*contactRepository)(nil)
