package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustylads/internal/domain"
)

// MemoryOrders keeps every confirmed order in memory, with an optional
// journal for best-effort durability. The lock covers only the brief append
// and read paths, so unrelated users' checkouts are never serialized beyond
// the append itself.
type MemoryOrders struct {
	journal OrderJournal // may be nil

	mu     sync.RWMutex
	all    []domain.Order
	byUser map[int64][]domain.Order
	byID   map[string]domain.Order
}

func NewMemoryOrders(journal OrderJournal) *MemoryOrders {
	return &MemoryOrders{
		journal: journal,
		byUser:  make(map[int64][]domain.Order),
		byID:    make(map[string]domain.Order),
	}
}

var _ OrderRepository = (*MemoryOrders)(nil)

func (m *MemoryOrders) Save(ctx context.Context, o *domain.Order) (string, error) {
	if o.ID == "" {
		o.ID = newOrderID(time.Now().UTC())
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusConfirmed
	}

	// store a deep copy so the caller cannot mutate the saved record
	cp := *o
	cp.Items = append([]domain.CartLine(nil), o.Items...)

	m.mu.Lock()
	m.all = append(m.all, cp)
	m.byUser[cp.UserID] = append(m.byUser[cp.UserID], cp)
	m.byID[cp.ID] = cp
	m.mu.Unlock()

	if m.journal != nil {
		if err := m.journal.Append(ctx, cp); err != nil {
			// the user was already told the order is confirmed; journal
			// failures are warnings, never errors
			slog.Warn("order journal append failed", "order_id", cp.ID, "err", err)
		}
	}
	return cp.ID, nil
}

func (m *MemoryOrders) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.byID[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	cp.Items = append([]domain.CartLine(nil), o.Items...)
	return &cp, nil
}

func (m *MemoryOrders) ListForUser(_ context.Context, userID int64, limit int) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orders := m.byUser[userID]
	if limit > 0 && len(orders) > limit {
		orders = orders[len(orders)-limit:]
	}
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	return out, nil
}

// newOrderID keeps the original TL-<date> shape; the uuid suffix makes ids
// unique across restarts and within the same second.
func newOrderID(now time.Time) string {
	return fmt.Sprintf("TL-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}
