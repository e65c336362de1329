package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventshub/internal/domain"
)

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{
		DB: db,
	}
}

// Create inserts the booking without a prior lookup; uniq_event_user decides duplicates.
func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (event_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, b.EventID, b.UserID, b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("booking", err)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) ListByUserWithEvents(ctx context.Context, userID string) ([]*domain.BookedEvent, error) {
	query := `
		SELECT b.id, b.created_at, e.id, e.title, e.slug, e.image, e.location,
			to_char(e.date, 'YYYY-MM-DD'), e.time
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make([]*domain.BookedEvent, 0)
	for rows.Next() {
		be := &domain.BookedEvent{}
		ev := &be.Event
		if err := rows.Scan(&be.BookingID, &be.BookedAt, &ev.ID, &ev.Title, &ev.Slug, &ev.Image,
			&ev.Location, &ev.Date, &ev.Time); err != nil {
			return nil, err
		}
		booked = append(booked, be)
	}
	return booked, rows.Err()
}

func (r *bookingRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE event_id = $1`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
