package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/models"
)

// Postgres error codes the booking insert can surface.
const (
	pqExclusionViolation   = "23P01"
	pqSerializationFailure = "40001"
	pqUniqueViolation      = "23505"
)

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id,
	mentor_id,
	mentee_id,
	title,
	description,
	start_time,
	end_time,
	status,
	created_at,
	updated_at
`

// Create inserts a booking inside a SERIALIZABLE transaction that
// re-checks the overlap invariant. The schema additionally carries an
// exclusion constraint over (mentor_id, tsrange(start_time, end_time))
// for active statuses, so a conflicting concurrent insert fails with
// 23P01 even if two transactions race past the check.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const overlapQuery = `
	SELECT COUNT(*)
	FROM bookings
	WHERE mentor_id = $1
	  AND status IN ('pending', 'confirmed')
	  AND start_time < $3
	  AND end_time > $2
	`

	var overlapping int
	err = tx.QueryRowContext(ctx, overlapQuery,
		booking.MentorID, booking.StartTime, booking.EndTime,
	).Scan(&overlapping)
	if err != nil {
		return mapBookingError(err)
	}
	if overlapping > 0 {
		return apperr.New(apperr.KindConflict, "this time slot is not available")
	}

	const insertQuery = `
	INSERT INTO bookings (
		id,
		mentor_id,
		mentee_id,
		title,
		description,
		start_time,
		end_time,
		status,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, insertQuery,
		booking.ID,
		booking.MentorID,
		booking.MenteeID,
		booking.Title,
		booking.Description,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return mapBookingError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapBookingError(err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	const query = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE id = $1
	LIMIT 1
	`

	var booking models.Booking
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.MentorID,
		&booking.MenteeID,
		&booking.Title,
		&booking.Description,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "booking not found")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus changes only the status column; the transition itself is
// validated by the service. Start and end times are immutable.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	const query = `
	UPDATE bookings
	SET status = $1, updated_at = NOW()
	WHERE id = $2
	`

	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return mapBookingError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.KindNotFound, "booking not found")
	}
	return nil
}

// ListForMentor returns the mentor profile's bookings, newest first.
func (r *BookingRepository) ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]models.Booking, error) {
	const query = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE mentor_id = $1
	ORDER BY start_time DESC
	`
	return r.list(ctx, query, mentorID)
}

// ListForMentee returns the mentee's bookings, newest first.
func (r *BookingRepository) ListForMentee(ctx context.Context, menteeID uuid.UUID) ([]models.Booking, error) {
	const query = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE mentee_id = $1
	ORDER BY start_time DESC
	`
	return r.list(ctx, query, menteeID)
}

func (r *BookingRepository) list(ctx context.Context, query string, arg any) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.MentorID,
			&booking.MenteeID,
			&booking.Title,
			&booking.Description,
			&booking.StartTime,
			&booking.EndTime,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// mapBookingError translates the database's concurrency failures into
// the conflict kind the caller expects.
func mapBookingError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqExclusionViolation, pqSerializationFailure, pqUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, "this time slot is not available", err)
		}
	}
	return err
}
