package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/models"
)

// AvailabilityRepository reads mentor availability slots. The slots are
// recurring and never mutated by this core.
type AvailabilityRepository struct {
	db *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListForMentor returns the mentor profile's declared slots ordered by
// day then start time.
func (r *AvailabilityRepository) ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]models.AvailabilitySlot, error) {
	const query = `
	SELECT
		id,
		mentor_id,
		day_of_week,
		start_minute,
		end_minute
	FROM mentor_availability
	WHERE mentor_id = $1
	ORDER BY day_of_week, start_minute
	`

	rows, err := r.db.QueryContext(ctx, query, mentorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.AvailabilitySlot
	for rows.Next() {
		var slot models.AvailabilitySlot
		if err := rows.Scan(
			&slot.ID,
			&slot.MentorID,
			&slot.DayOfWeek,
			&slot.StartMinute,
			&slot.EndMinute,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
