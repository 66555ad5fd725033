package recordstore

import (
	"context"
	"errors"

	"safetyintel/internal/domain"
)

var (
	// ErrInvalidDimension is returned by Init for non-positive vector sizes.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrDimensionMismatch is returned when a point's vector does not match the store.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Storage persists incident points and answers filtered and nearest-neighbour queries.
type Storage interface {
	domain.RecordSource

	// Init (re)creates the collection for vectors of the given size,
	// dropping whatever was stored before.
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []domain.Point) error
	Close() error
}
