package service

import (
	"sync"

	"trustylads/internal/domain"
)

// CartService хранит корзины пользователей в памяти
//
// Carts live only for the process lifetime; durability is an explicit
// non-goal. Invariants: quantity >= 1 on every line, at most one line per
// product id, line order is first-add order.
type CartService struct {
	catalog *Catalog

	mu    sync.RWMutex
	carts map[int64][]domain.CartLine
}

func NewCartService(catalog *Catalog) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   make(map[int64][]domain.CartLine),
	}
}

// Add puts one unit of the product into the user's cart: a new line with the
// product's current price snapshotted, or +1 on the existing line. A bad
// catalog reference fails cleanly and leaves the cart untouched.
func (s *CartService) Add(userID int64, categoryID, productID string) (domain.CartLine, error) {
	p, err := s.catalog.Get(categoryID, productID)
	if err != nil {
		return domain.CartLine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == p.ID {
			lines[i].Quantity++
			return lines[i], nil
		}
	}
	line := domain.CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1}
	s.carts[userID] = append(lines, line)
	return line, nil
}

// Lines returns a copy of the user's cart in first-add order.
func (s *CartService) Lines(userID int64) []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.carts[userID]
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

// Total is the sum over all lines, rounded to 2 decimal places. Empty cart
// totals 0.00.
func (s *CartService) Total(userID int64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, l := range s.carts[userID] {
		total += l.Price * float64(l.Quantity)
	}
	return domain.Round2(total)
}

// Empty reports whether the user's cart has no lines.
func (s *CartService) Empty(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts[userID]) == 0
}

// Clear empties the cart. Idempotent: clearing an empty cart is a no-op.
func (s *CartService) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
