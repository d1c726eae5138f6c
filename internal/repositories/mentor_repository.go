package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/models"
)

// MentorRepository reads mentor profiles owned by the profile service.
type MentorRepository struct {
	db *sql.DB
}

func NewMentorRepository(db *sql.DB) *MentorRepository {
	return &MentorRepository{db: db}
}

const mentorProfileColumns = `
	id,
	user_id,
	headline,
	created_at
`

// FindByID looks up a mentor profile by its profile id (the id bookings
// and availability slots reference).
func (r *MentorRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.MentorProfile, error) {
	const query = `
	SELECT ` + mentorProfileColumns + `
	FROM mentor_profiles
	WHERE id = $1
	LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByUserID resolves the profile owned by a mentor user. Bookings
// store the profile id while access tokens carry the user id, so this
// is the bridge between the two.
func (r *MentorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.MentorProfile, error) {
	const query = `
	SELECT ` + mentorProfileColumns + `
	FROM mentor_profiles
	WHERE user_id = $1
	LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *MentorRepository) scanOne(row *sql.Row) (*models.MentorProfile, error) {
	var profile models.MentorProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Headline,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "mentor profile not found")
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
