package booking

import (
	"context"
	"time"

	"carpool/internal/apperr"
)

const maxStatsRange = 366 * 24 * time.Hour

// DailyStats counts the bookings created on one calendar day by the state
// they are in now.
type DailyStats struct {
	Day       string `db:"day" json:"day" example:"2026-03-14"`
	Created   int    `db:"created" json:"created"`
	Cancelled int    `db:"cancelled" json:"cancelled"`
	Completed int    `db:"completed" json:"completed"`
	NoShows   int    `db:"no_shows" json:"no_shows"`
	Seats     int    `db:"seats" json:"seats"`
}

func (r *repository) StatsByDay(ctx context.Context, from, to time.Time) ([]DailyStats, error) {
	query := `
		SELECT
			to_char(DATE(created_at), 'YYYY-MM-DD')                          AS day,
			COUNT(*)                                                         AS created,
			COUNT(*) FILTER (WHERE status = 'cancelled')                     AS cancelled,
			COUNT(*) FILTER (WHERE status = 'completed')                     AS completed,
			COUNT(*) FILTER (WHERE passenger_no_show)                        AS no_shows,
			COALESCE(SUM(seats_booked) FILTER (WHERE status IN ('confirmed', 'in_progress', 'completed')), 0) AS seats
		FROM bookings
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)
	`

	stats := []DailyStats{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) Stats(ctx context.Context, from, to time.Time) ([]DailyStats, error) {
	if !from.Before(to) {
		return nil, apperr.Validation("from must be before to")
	}
	if to.Sub(from) > maxStatsRange {
		return nil, apperr.Validation("range must not exceed one year")
	}
	return s.repo.StatsByDay(ctx, from, to)
}
