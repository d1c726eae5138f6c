package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/models"
)

// ConnectionRepository reads the mentor/mentee relationships owned by
// the profile service. Read-only in this core.
type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// GetBetween returns the connection between a mentor user and a mentee,
// regardless of status.
func (r *ConnectionRepository) GetBetween(ctx context.Context, mentorUserID, menteeID uuid.UUID) (*models.Connection, error) {
	const query = `
	SELECT
		id,
		mentor_id,
		mentee_id,
		status,
		created_at
	FROM connections
	WHERE mentor_id = $1 AND mentee_id = $2
	LIMIT 1
	`

	var conn models.Connection
	err := r.db.QueryRowContext(ctx, query, mentorUserID, menteeID).Scan(
		&conn.ID,
		&conn.MentorID,
		&conn.MenteeID,
		&conn.Status,
		&conn.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "connection not found")
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}
