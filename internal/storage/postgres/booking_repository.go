package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository создаёт PostgreSQL-реализацию BookingRepository.
func NewBookingRepository(store *Store) domain.BookingRepository {
	return &bookingRepository{db: store.DB()}
}

func (r *bookingRepository) Create(booking domain.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, user_id, status, amount_minor, total_amount, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		booking.ID, booking.UserID, string(booking.Status),
		booking.AmountMinor, booking.TotalAmount, booking.Version,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBookingVersionConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	for i, item := range booking.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO booking_items (
				booking_id, position, product_id, quantity
			) VALUES ($1,$2,$3,$4)
		`,
			booking.ID, i, item.ProductID, item.Quantity,
		); err != nil {
			return fmt.Errorf("insert booking item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) Get(id string) (domain.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var booking domain.Booking
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, amount_minor, total_amount, version, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(
		&booking.ID, &booking.UserID, &status,
		&booking.AmountMinor, &booking.TotalAmount, &booking.Version,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("select booking: %w", err)
	}
	booking.Status = domain.BookingStatus(status)

	items, err := r.loadItems(ctx, booking.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	booking.Items = items

	return booking, nil
}

func (r *bookingRepository) ListByUser(userID string, limit int) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, status, amount_minor, total_amount, version, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", userID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var booking domain.Booking
		var status string
		if err := rows.Scan(
			&booking.ID, &booking.UserID, &status,
			&booking.AmountMinor, &booking.TotalAmount, &booking.Version,
			&booking.CreatedAt, &booking.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		booking.Status = domain.BookingStatus(status)

		items, err := r.loadItems(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		booking.Items = items
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) Save(booking domain.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET user_id = $1,
		    status = $2,
		    amount_minor = $3,
		    total_amount = $4,
		    version = version + 1,
		    updated_at = $5
		WHERE id = $6
		  AND version = $7
	`,
		booking.UserID,
		string(booking.Status),
		booking.AmountMinor,
		booking.TotalAmount,
		booking.UpdatedAt,
		booking.ID,
		booking.Version,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.bookingExistsTx(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrBookingNotFound
		}
		return domain.ErrBookingVersionConflict
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) loadItems(ctx context.Context, bookingID string) ([]domain.BookingItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM booking_items
		WHERE booking_id = $1
		ORDER BY position ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.BookingItem, 0)
	for rows.Next() {
		var item domain.BookingItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan booking item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking items: %w", err)
	}

	return items, nil
}

func (r *bookingRepository) bookingExistsTx(ctx context.Context, tx *sql.Tx, bookingID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = $1`, bookingID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check booking exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.BookingRepository = (*bookingRepository)(nil)
