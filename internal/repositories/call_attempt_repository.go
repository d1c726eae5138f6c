package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/models"
)

// CallAttemptRepository persists the audit trail of call attempts. The
// live call state machine never reads these rows back; they exist for
// history and billing.
type CallAttemptRepository struct {
	db *sql.DB
}

func NewCallAttemptRepository(db *sql.DB) *CallAttemptRepository {
	return &CallAttemptRepository{db: db}
}

func (r *CallAttemptRepository) Create(ctx context.Context, attempt *models.CallAttempt) error {
	const query = `
	INSERT INTO call_attempts (
		id,
		channel_name,
		caller_id,
		callee_id,
		is_video,
		status,
		started_at,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
	RETURNING started_at, created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		attempt.ID,
		attempt.ChannelName,
		attempt.CallerID,
		attempt.CalleeID,
		attempt.IsVideo,
		attempt.Status,
	).Scan(&attempt.StartedAt, &attempt.CreatedAt, &attempt.UpdatedAt)
}

// GetLatestByChannel returns the most recent attempt on a channel.
func (r *CallAttemptRepository) GetLatestByChannel(ctx context.Context, channelName string) (*models.CallAttempt, error) {
	const query = `
	SELECT
		id,
		channel_name,
		caller_id,
		callee_id,
		is_video,
		status,
		started_at,
		ended_at,
		end_reason,
		duration_seconds,
		created_at,
		updated_at
	FROM call_attempts
	WHERE channel_name = $1
	ORDER BY started_at DESC
	LIMIT 1
	`

	var attempt models.CallAttempt
	err := r.db.QueryRowContext(ctx, query, channelName).Scan(
		&attempt.ID,
		&attempt.ChannelName,
		&attempt.CallerID,
		&attempt.CalleeID,
		&attempt.IsVideo,
		&attempt.Status,
		&attempt.StartedAt,
		&attempt.EndedAt,
		&attempt.EndReason,
		&attempt.DurationSeconds,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "call attempt not found")
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// MarkActive records that the callee accepted and the call went live.
func (r *CallAttemptRepository) MarkActive(ctx context.Context, channelName string) error {
	const query = `
	UPDATE call_attempts
	SET status = $1, updated_at = NOW()
	WHERE channel_name = $2 AND status = $3
	`

	_, err := r.db.ExecContext(ctx, query,
		models.CallAttemptStatusActive, channelName, models.CallAttemptStatusRinging)
	return err
}

// End closes the latest open attempt on a channel, computing duration
// from started_at. Ending an already-ended attempt is a no-op, which
// keeps duplicate end/reject signals harmless.
func (r *CallAttemptRepository) End(ctx context.Context, channelName, reason string) error {
	const query = `
	UPDATE call_attempts
	SET
		status = $1,
		ended_at = NOW(),
		end_reason = $2,
		duration_seconds = GREATEST(0, EXTRACT(EPOCH FROM (NOW() - started_at)))::int,
		updated_at = NOW()
	WHERE channel_name = $3 AND status != $1
	`

	_, err := r.db.ExecContext(ctx, query, models.CallAttemptStatusEnded, reason, channelName)
	return err
}
