package repository

import (
	"context"
	"errors"

	"trustylads/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// OrderRepository is an append-only store of confirmed orders. There is no
// update or delete: orders are immutable once saved.
type OrderRepository interface {
	// Save assigns an id if the order has none, appends the order and
	// returns the id.
	Save(ctx context.Context, o *domain.Order) (string, error)
	// GetByID returns a single saved order or ErrNotFound.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	// ListForUser returns the user's orders in creation order. A positive
	// limit keeps only the most recent N; limit <= 0 returns all.
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error)
}

// OrderJournal is a best-effort durable append log behind the in-memory
// store. Append failures must not fail order confirmation: the caller logs
// them and moves on, the in-memory record stays the source of truth.
type OrderJournal interface {
	Append(ctx context.Context, o domain.Order) error
}
