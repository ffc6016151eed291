package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/pkg/database"
	"facility-booking/pkg/money"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// FacilityRepository reads the descriptors owned by the facility catalog.
// This service never writes them.
type FacilityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Facility, error)
}

type facilityRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFacilityRepository(db database.PgxIface, log *zap.Logger) FacilityRepository {
	return &facilityRepository{
		db:  db,
		log: log.With(zap.String("repository", "facility")),
	}
}

func (r *facilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Facility, error) {
	query := `
		SELECT id, name, hourly_rate_cents, is_active
		FROM facilities
		WHERE id = $1
	`

	var (
		facility  entity.Facility
		rateCents int64
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&facility.ID,
		&facility.Name,
		&rateCents,
		&facility.IsActive,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find facility by ID",
			zap.Error(err),
			zap.String("facility_id", id.String()),
		)
		return nil, fmt.Errorf("find facility by ID %s: %w", id, err)
	}
	facility.HourlyRate = money.Cents(rateCents)

	hours, err := r.findHours(ctx, id)
	if err != nil {
		return nil, err
	}
	facility.OperatingHours = hours

	return &facility, nil
}

func (r *facilityRepository) findHours(ctx context.Context, facilityID uuid.UUID) (map[time.Weekday]timeslot.Range, error) {
	query := `
		SELECT weekday, open_minute, close_minute
		FROM facility_hours
		WHERE facility_id = $1
	`

	rows, err := r.db.Query(ctx, query, facilityID)
	if err != nil {
		r.log.Error("Failed to find facility hours",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
		)
		return nil, fmt.Errorf("find hours for facility %s: %w", facilityID, err)
	}
	defer rows.Close()

	hours := make(map[time.Weekday]timeslot.Range)
	for rows.Next() {
		var weekday, openMinute, closeMinute int
		if err := rows.Scan(&weekday, &openMinute, &closeMinute); err != nil {
			r.log.Error("Failed to scan facility hours row", zap.Error(err))
			return nil, fmt.Errorf("scan facility hours row: %w", err)
		}
		hours[time.Weekday(weekday)] = timeslot.Range{
			Start: timeslot.Minute(openMinute),
			End:   timeslot.Minute(closeMinute),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facility hours rows: %w", err)
	}

	return hours, nil
}
