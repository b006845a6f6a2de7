package booking

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/apperr"
	"carpool/internal/db"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, trip_id, passenger_id, seats_booked, total_price, status,
		driver_confirmed_departure, passenger_confirmed_departure, driver_confirmed_at, passenger_confirmed_at,
		trip_started, trip_started_at, passenger_no_show, cancelled_by, cancelled_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q sqlx.QueryerContext, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (trip_id, passenger_id, seats_booked, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bookingColumns

	var created Booking
	err := sqlx.GetContext(ctx, q, &created, query, b.TripID, b.PassengerID, b.SeatsBooked, b.TotalPrice, StatusPending)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Booking, error) {
	if q == nil {
		q = r.db
	}
	return r.get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Booking, error) {
	return r.get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, q sqlx.QueryerContext, query string, id int) (*Booking, error) {
	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Save(ctx context.Context, q sqlx.ExecerContext, b *Booking) error {
	query := `
		UPDATE bookings
		SET status = $1,
			driver_confirmed_departure = $2,
			passenger_confirmed_departure = $3,
			driver_confirmed_at = $4,
			passenger_confirmed_at = $5,
			trip_started = $6,
			trip_started_at = $7,
			passenger_no_show = $8,
			cancelled_by = $9,
			cancelled_at = $10,
			updated_at = NOW()
		WHERE id = $11
	`

	result, err := q.ExecContext(ctx, query,
		b.Status, b.DriverConfirmedDeparture, b.PassengerConfirmedDeparture,
		b.DriverConfirmedAt, b.PassengerConfirmedAt, b.TripStarted, b.TripStartedAt,
		b.PassengerNoShow, b.CancelledBy, b.CancelledAt, b.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("booking", b.ID)
	}
	return nil
}

func (r *repository) HasActive(ctx context.Context, q sqlx.QueryerContext, tripID, passengerID int) (bool, error) {
	return db.Exists(ctx, q, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE trip_id = $1 AND passenger_id = $2 AND status IN ('pending', 'confirmed')
		)`, tripID, passengerID)
}

// ClaimedSeats counts seats held by every booking that has not been rejected
// or cancelled. New bookings are admitted against this number so pending
// claims cannot oversell the trip. Pending claims hold their seats until the
// driver decides or the passenger cancels.
func (r *repository) ClaimedSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error) {
	return r.sumSeats(ctx, q, tripID, `status IN ('pending', 'confirmed', 'in_progress', 'completed')`)
}

// InProgressSeats counts seats still on the road.
func (r *repository) InProgressSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error) {
	return r.sumSeats(ctx, q, tripID, `status = 'in_progress'`)
}

// ConfirmedSeats counts seats the driver has already accepted.
func (r *repository) ConfirmedSeats(ctx context.Context, q sqlx.QueryerContext, tripID int) (int, error) {
	return r.sumSeats(ctx, q, tripID, `status IN ('confirmed', 'in_progress', 'completed')`)
}

func (r *repository) sumSeats(ctx context.Context, q sqlx.QueryerContext, tripID int, cond string) (int, error) {
	var seats int
	err := sqlx.GetContext(ctx, q, &seats,
		`SELECT COALESCE(SUM(seats_booked), 0) FROM bookings WHERE trip_id = $1 AND `+cond, tripID)
	return seats, err
}

// PurgeStale removes rejected and cancelled rows of the pair that no
// payment references.
func (r *repository) PurgeStale(ctx context.Context, q sqlx.ExecerContext, tripID, passengerID int) (int64, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM bookings b
		WHERE b.trip_id = $1 AND b.passenger_id = $2
		  AND b.status IN ('rejected', 'cancelled')
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = b.id)
	`, tripID, passengerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *repository) ListByPassenger(ctx context.Context, passengerID int) ([]Booking, error) {
	bookings := []Booking{}
	err := r.db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE passenger_id = $1 ORDER BY created_at DESC`, passengerID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListByTrip(ctx context.Context, tripID int) ([]Booking, error) {
	bookings := []Booking{}
	err := r.db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE trip_id = $1 ORDER BY created_at ASC`, tripID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
