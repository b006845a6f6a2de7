package trip

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/apperr"

	"github.com/jmoiron/sqlx"
)

const tripColumns = `id, driver_id, origin, destination, departure_time, total_seats,
		available_seats, price_per_seat, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Trip) (*Trip, error) {
	query := `
		INSERT INTO trips (driver_id, origin, destination, departure_time, total_seats, available_seats, price_per_seat, status)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7)
		RETURNING ` + tripColumns

	status := t.Status
	if status == "" {
		status = StatusPending
	}

	var created Trip
	err := r.db.GetContext(ctx, &created, query,
		t.DriverID, t.Origin, t.Destination, t.DepartureTime, t.TotalSeats, t.PricePerSeat, status)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Trip, error) {
	if q == nil {
		q = r.db
	}
	return r.get(ctx, q, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
}

// GetForUpdate locks the trip row until the surrounding transaction ends.
// Every booking transition that can change seat usage takes this lock first.
func (r *repository) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Trip, error) {
	return r.get(ctx, q, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, q sqlx.QueryerContext, query string, id int) (*Trip, error) {
	var t Trip
	err := sqlx.GetContext(ctx, q, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("trip", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RecomputeAvailableSeats rebuilds available_seats from the bookings that
// hold seats (confirmed or already travelling) and returns the new value.
func (r *repository) RecomputeAvailableSeats(ctx context.Context, q sqlx.QueryerContext, id int) (int, error) {
	query := `
		UPDATE trips
		SET available_seats = GREATEST(total_seats - COALESCE((
				SELECT SUM(seats_booked) FROM bookings
				WHERE trip_id = $1 AND status IN ('confirmed', 'in_progress', 'completed')
			), 0), 0),
			updated_at = NOW()
		WHERE id = $1
		RETURNING available_seats
	`

	var available int
	err := sqlx.GetContext(ctx, q, &available, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("trip", id)
	}
	return available, err
}

func (r *repository) UpdateStatus(ctx context.Context, q sqlx.ExecerContext, id int, status Status) error {
	result, err := q.ExecContext(ctx,
		`UPDATE trips SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("trip", id)
	}
	return nil
}

func (r *repository) ListByDriver(ctx context.Context, driverID int) ([]Trip, error) {
	var trips []Trip
	err := r.db.SelectContext(ctx, &trips,
		`SELECT `+tripColumns+` FROM trips WHERE driver_id = $1 ORDER BY departure_time DESC`, driverID)
	if err != nil {
		return nil, err
	}
	return trips, nil
}
