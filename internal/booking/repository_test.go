package booking

import (
	"context"
	"testing"
	"time"

	"carpool/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{"id", "trip_id", "passenger_id", "seats_booked", "total_price", "status",
	"driver_confirmed_departure", "passenger_confirmed_departure", "driver_confirmed_at", "passenger_confirmed_at",
	"trip_started", "trip_started_at", "passenger_no_show", "cancelled_by", "cancelled_at", "created_at", "updated_at"}

func setupMock(t *testing.T) (Repository, *sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), sqlxDB, mock, func() { sqlxDB.Close() }
}

func bookingRow(id int, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingCols).
		AddRow(id, 4, 5, 2, 10000, string(status), false, false, nil, nil, false, nil, false, nil, nil, now, now)
}

func TestCreateBooking(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(`INSERT INTO bookings \(trip_id, passenger_id, seats_booked, total_price, status\)`).
		WithArgs(4, 5, 2, int64(10000), "pending").
		WillReturnRows(bookingRow(11, StatusPending))

	b, err := repo.Create(context.Background(), db, &Booking{TripID: 4, PassengerID: 5, SeatsBooked: 2, TotalPrice: 10000})
	require.NoError(t, err)
	assert.Equal(t, 11, b.ID)
	assert.Equal(t, StatusPending, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdate_NotFound(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1 FOR UPDATE`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := repo.GetForUpdate(context.Background(), db, 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSave(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	by := 5
	now := time.Now()
	b := &Booking{ID: 11, Status: StatusCancelled, CancelledBy: &by, CancelledAt: &now}

	mock.ExpectExec(`UPDATE bookings SET status = \$1`).
		WithArgs("cancelled", false, false, nil, nil, false, nil, false, 5, now, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), db, b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_Missing(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec(`UPDATE bookings`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), db, &Booking{ID: 12, Status: StatusConfirmed})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestHasActive(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(`SELECT EXISTS\(.*status IN \('pending', 'confirmed'\)`).
		WithArgs(4, 5).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.HasActive(context.Background(), db, 4, 5)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestClaimedAndConfirmedSeats(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(seats_booked\), 0\) FROM bookings WHERE trip_id = \$1 AND status IN \('pending', 'confirmed', 'in_progress', 'completed'\)`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(seats_booked\), 0\) FROM bookings WHERE trip_id = \$1 AND status IN \('confirmed', 'in_progress', 'completed'\)`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	claimed, err := repo.ClaimedSeats(context.Background(), db, 4)
	require.NoError(t, err)
	confirmed, err := repo.ConfirmedSeats(context.Background(), db, 4)
	require.NoError(t, err)

	assert.Equal(t, 3, claimed)
	assert.Equal(t, 2, confirmed)
}

func TestInProgressSeats(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(seats_booked\), 0\) FROM bookings WHERE trip_id = \$1 AND status = 'in_progress'`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))

	seats, err := repo.InProgressSeats(context.Background(), db, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, seats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeStale(t *testing.T) {
	repo, db, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec(`DELETE FROM bookings b WHERE b.trip_id = \$1 AND b.passenger_id = \$2 AND b.status IN \('rejected', 'cancelled'\) AND NOT EXISTS`).
		WithArgs(4, 5).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.PurgeStale(context.Background(), db, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListByPassenger(t *testing.T) {
	repo, _, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE passenger_id = \$1 ORDER BY created_at DESC`).
		WithArgs(5).
		WillReturnRows(bookingRow(11, StatusConfirmed))

	bookings, err := repo.ListByPassenger(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, StatusConfirmed, bookings[0].Status)
}

func TestStatsByDay(t *testing.T) {
	repo, _, mock, close := setupMock(t)
	defer close()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM bookings WHERE created_at >= \$1 AND created_at < \$2 GROUP BY DATE\(created_at\)`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "created", "cancelled", "completed", "no_shows", "seats"}).
			AddRow("2026-03-02", 4, 1, 2, 1, 5).
			AddRow("2026-03-05", 1, 0, 0, 0, 0))

	stats, err := repo.StatsByDay(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, DailyStats{Day: "2026-03-02", Created: 4, Cancelled: 1, Completed: 2, NoShows: 1, Seats: 5}, stats[0])
	require.NoError(t, mock.ExpectationsWereMet())
}
