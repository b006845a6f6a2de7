package trip

import (
	"context"
	"time"

	"carpool/internal/apperr"
)

type Service interface {
	Create(ctx context.Context, driverID int, req CreateTripRequest) (*Trip, error)
	Get(ctx context.Context, id int) (*Trip, error)
	ListByDriver(ctx context.Context, driverID int) ([]Trip, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, driverID int, req CreateTripRequest) (*Trip, error) {
	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, apperr.Validation("departure_time must be RFC3339")
	}
	if !departure.After(s.now()) {
		return nil, apperr.Validation("departure_time must be in the future")
	}
	if req.TotalSeats <= 0 {
		return nil, apperr.Validation("total_seats must be at least 1")
	}
	if req.PricePerSeat < 0 {
		return nil, apperr.Validation("price_per_seat must not be negative")
	}

	return s.repo.Create(ctx, &Trip{
		DriverID:      driverID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: departure,
		TotalSeats:    req.TotalSeats,
		PricePerSeat:  req.PricePerSeat,
		Status:        StatusPending,
	})
}

func (s *service) Get(ctx context.Context, id int) (*Trip, error) {
	return s.repo.GetByID(ctx, nil, id)
}

func (s *service) ListByDriver(ctx context.Context, driverID int) ([]Trip, error) {
	return s.repo.ListByDriver(ctx, driverID)
}
