package trip

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, t *Trip) (*Trip, error)
	GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Trip, error)
	GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Trip, error)
	RecomputeAvailableSeats(ctx context.Context, q sqlx.QueryerContext, id int) (int, error)
	UpdateStatus(ctx context.Context, q sqlx.ExecerContext, id int, status Status) error
	ListByDriver(ctx context.Context, driverID int) ([]Trip, error)
}
