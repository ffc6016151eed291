package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/pkg/database"
	"facility-booking/pkg/money"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// SQLSTATE raised by the reservations_no_overlap exclusion constraint.
const exclusionViolation = "23P01"

const reservationColumns = `id, facility_id, requester_id, group_id, reservation_date,
		start_minute, end_minute, hourly_rate_cents, total_price_cents, status,
		notes, cancellation_reason, cancelled_at, version, created_at, updated_at`

type ReservationRepository interface {
	// CreateIfNoOverlap inserts the reservation only if no active reservation
	// on the same facility and date overlaps it. Check and insert are atomic
	// with respect to other creates for that facility and date.
	CreateIfNoOverlap(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindActiveByFacilityDate(ctx context.Context, facilityID uuid.UUID, date timeslot.Date) ([]*entity.Reservation, error)
	List(ctx context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error)
	Count(ctx context.Context, filter entity.ReservationFilter) (int64, error)

	// Update writes the mutable fields if the stored version still equals
	// reservation.Version, then bumps the version.
	Update(ctx context.Context, reservation *entity.Reservation) error

	// Delete removes a cancelled reservation at the given version.
	Delete(ctx context.Context, id uuid.UUID, version int) error
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

func (r *reservationRepository) CreateIfNoOverlap(ctx context.Context, res *entity.Reservation) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.log.Warn("Failed to roll back reservation tx", zap.Error(rbErr))
			}
		}
	}()

	// Serializes creates for one (facility, date); released on commit/rollback.
	lockKey := res.FacilityID.String() + "|" + res.Date.String()
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		r.log.Error("Failed to take facility/date lock",
			zap.Error(err),
			zap.String("lock_key", lockKey),
		)
		return fmt.Errorf("lock facility %s on %s: %w", res.FacilityID, res.Date, err)
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE facility_id = $1
			  AND reservation_date = $2
			  AND status IN ('pending', 'confirmed')
			  AND start_minute < $4
			  AND end_minute > $3
		)
	`

	var taken bool
	err = tx.QueryRow(ctx, query,
		res.FacilityID,
		res.Date.Time(),
		int(res.StartMinute),
		int(res.EndMinute),
	).Scan(&taken)
	if err != nil {
		r.log.Error("Failed to check overlapping reservations",
			zap.Error(err),
			zap.String("facility_id", res.FacilityID.String()),
			zap.Stringer("date", res.Date),
		)
		return fmt.Errorf("check overlap for facility %s on %s: %w", res.FacilityID, res.Date, err)
	}
	if taken {
		return ErrOverlap
	}

	insert := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = tx.Exec(ctx, insert,
		res.ID,
		res.FacilityID,
		res.RequesterID,
		res.GroupID,
		res.Date.Time(),
		int(res.StartMinute),
		int(res.EndMinute),
		int64(res.HourlyRate),
		int64(res.TotalPrice),
		string(res.Status),
		res.Notes,
		res.CancellationReason,
		res.CancelledAt,
		res.Version,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return ErrOverlap
		}
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("facility_id", res.FacilityID.String()),
			zap.String("requester_id", res.RequesterID.String()),
		)
		return fmt.Errorf("create reservation %s: %w", res.ID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reservation %s: %w", res.ID, err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id, err)
	}

	return res, nil
}

func (r *reservationRepository) FindActiveByFacilityDate(ctx context.Context, facilityID uuid.UUID, date timeslot.Date) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE facility_id = $1
		  AND reservation_date = $2
		  AND status IN ('pending', 'confirmed')
		ORDER BY start_minute
	`

	rows, err := r.db.Query(ctx, query, facilityID, date.Time())
	if err != nil {
		r.log.Error("Failed to find active reservations",
			zap.Error(err),
			zap.String("facility_id", facilityID.String()),
			zap.Stringer("date", date),
		)
		return nil, fmt.Errorf("find active reservations for facility %s on %s: %w", facilityID, date, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *reservationRepository) List(ctx context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations
		%s
		ORDER BY reservation_date, start_minute, created_at
		LIMIT $%d OFFSET $%d
	`, reservationColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list reservations",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *reservationRepository) Count(ctx context.Context, filter entity.ReservationFilter) (int64, error) {
	where, args := filterClause(filter)
	query := `SELECT COUNT(*) FROM reservations ` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations: %w", err)
	}

	return count, nil
}

func (r *reservationRepository) Update(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $3, notes = $4, group_id = $5, cancellation_reason = $6,
		    cancelled_at = $7, updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.Exec(ctx, query,
		res.ID,
		res.Version,
		string(res.Status),
		res.Notes,
		res.GroupID,
		res.CancellationReason,
		res.CancelledAt,
		res.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update reservation",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
		)
		return fmt.Errorf("update reservation %s: %w", res.ID, err)
	}

	if result.RowsAffected() == 0 {
		return r.missOrStale(ctx, res.ID)
	}

	res.Version++
	return nil
}

func (r *reservationRepository) Delete(ctx context.Context, id uuid.UUID, version int) error {
	query := `DELETE FROM reservations WHERE id = $1 AND version = $2 AND status = 'cancelled'`

	result, err := r.db.Exec(ctx, query, id, version)
	if err != nil {
		r.log.Error("Failed to delete reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return r.missOrStale(ctx, id)
	}

	r.log.Info("Reservation deleted", zap.String("reservation_id", id.String()))
	return nil
}

// missOrStale tells a vanished row apart from a lost version race after a
// conditional write matched nothing.
func (r *reservationRepository) missOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check reservation %s: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleVersion
}

func (r *reservationRepository) collect(rows pgx.Rows) ([]*entity.Reservation, error) {
	reservations := []*entity.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation rows: %w", err)
	}

	return reservations, nil
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var (
		res                   entity.Reservation
		date                  time.Time
		start, end            int
		rateCents, totalCents int64
		status                string
	)

	err := row.Scan(
		&res.ID,
		&res.FacilityID,
		&res.RequesterID,
		&res.GroupID,
		&date,
		&start,
		&end,
		&rateCents,
		&totalCents,
		&status,
		&res.Notes,
		&res.CancellationReason,
		&res.CancelledAt,
		&res.Version,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Date = timeslot.DateOf(date.UTC())
	res.StartMinute = timeslot.Minute(start)
	res.EndMinute = timeslot.Minute(end)
	res.HourlyRate = money.Cents(rateCents)
	res.TotalPrice = money.Cents(totalCents)
	res.Status = entity.ReservationStatus(status)

	return &res, nil
}

// filterClause renders the filter as a WHERE clause with positional args
// starting at $1.
func filterClause(f entity.ReservationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.RequesterID != nil {
		add("requester_id = $%d", *f.RequesterID)
	}
	if f.FacilityID != nil {
		add("facility_id = $%d", *f.FacilityID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.DateFrom != nil {
		add("reservation_date >= $%d", f.DateFrom.Time())
	}
	if f.DateTo != nil {
		add("reservation_date <= $%d", f.DateTo.Time())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
