package trip

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Trip is the external seat and price source. AvailableSeats is derived from
// confirmed bookings and is never decremented in place.
type Trip struct {
	ID             int       `db:"id" json:"id"`
	DriverID       int       `db:"driver_id" json:"driver_id"`
	Origin         string    `db:"origin" json:"origin"`
	Destination    string    `db:"destination" json:"destination"`
	DepartureTime  time.Time `db:"departure_time" json:"departure_time"`
	TotalSeats     int       `db:"total_seats" json:"total_seats"`
	AvailableSeats int       `db:"available_seats" json:"available_seats"`
	PricePerSeat   int64     `db:"price_per_seat" json:"price_per_seat"`
	Status         Status    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Bookable reports whether new seat claims may be taken at now.
func (t *Trip) Bookable(now time.Time) bool {
	if t.Status != StatusPending && t.Status != StatusConfirmed {
		return false
	}
	return t.DepartureTime.After(now)
}

type CreateTripRequest struct {
	Origin        string `json:"origin" binding:"required"`
	Destination   string `json:"destination" binding:"required"`
	DepartureTime string `json:"departure_time" binding:"required"`
	TotalSeats    int    `json:"total_seats" binding:"required,min=1"`
	PricePerSeat  int64  `json:"price_per_seat" binding:"min=0"`
}
