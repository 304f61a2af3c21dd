package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trustylads/internal/domain"
)

// FileJournal appends orders to one JSON file per user under dir, the same
// layout the hosting volume already has (orders/user_<id>_orders.json).
type FileJournal struct {
	dir string
	mu  sync.Mutex
}

func NewFileJournal(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create orders dir: %w", err)
	}
	return &FileJournal{dir: dir}, nil
}

var _ OrderJournal = (*FileJournal)(nil)

func (f *FileJournal) Append(_ context.Context, o domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.userFile(o.UserID)
	var orders []domain.Order
	if data, err := os.ReadFile(path); err == nil {
		// corrupt or empty file: start fresh rather than fail the append
		_ = json.Unmarshal(data, &orders)
	}
	orders = append(orders, o)

	data, err := json.MarshalIndent(orders, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load returns the journaled orders for one user; a missing file is an empty
// history, not an error.
func (f *FileJournal) Load(userID int64) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.userFile(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("decode orders file: %w", err)
	}
	return orders, nil
}

func (f *FileJournal) userFile(userID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("user_%d_orders.json", userID))
}
