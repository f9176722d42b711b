// Package serving tracks how many of each serving method the devotee has
// picked for self-serving prasad.
package serving

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/kvstore"
)

var (
	ErrEmptySelection = errors.New("no serving method selected")
	ErrLocked         = errors.New("serving selection can no longer be changed here")
)

// Selection is a serving method with a positive quantity.
type Selection struct {
	Item     entity.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
}

// storedItem is the persisted form under selectedServingItems. Older
// payloads carry _id instead of id.
type storedItem struct {
	ID       string `json:"id"`
	MongoID  string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image,omitempty"`
	Quantity int    `json:"quantity"`
}

// State is safe for concurrent use.
type State struct {
	store  kvstore.Store
	logger *zap.Logger

	mu    sync.RWMutex
	items map[string]Selection
}

func NewState(store kvstore.Store, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{store: store, logger: logger, items: make(map[string]Selection)}
}

// SetItemQuantity clamps qty at zero; zero removes the entry.
func (s *State) SetItemQuantity(item entity.MenuItem, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(item, qty)
}

func (s *State) setLocked(item entity.MenuItem, qty int) {
	if qty <= 0 {
		delete(s.items, item.ID)
		return
	}
	s.items[item.ID] = Selection{Item: item, Quantity: qty}
}

// SetKnownQuantity updates an item already in the selection. It reports
// false when id is not selected.
func (s *State) SetKnownQuantity(id string, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return false
	}
	s.setLocked(cur.Item, qty)
	return true
}

func (s *State) Increment(item entity.MenuItem) {
	s.Adjust(item, 1)
}

func (s *State) Decrement(item entity.MenuItem) {
	s.Adjust(item, -1)
}

// Adjust adds delta to the current quantity of item.
func (s *State) Adjust(item entity.MenuItem, delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.items[item.ID]
	if cur.Item.ID != "" {
		item = cur.Item
	}
	s.setLocked(item, cur.Quantity+delta)
	return s.items[item.ID].Quantity
}

func (s *State) Quantity(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id].Quantity
}

// Selected returns the non-zero selections ordered by name, then id.
func (s *State) Selected() []Selection {
	s.mu.RLock()
	out := make([]Selection, 0, len(s.items))
	for _, sel := range s.items {
		out = append(out, sel)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Item.Name != out[j].Item.Name {
			return out[i].Item.Name < out[j].Item.Name
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// Total is the sum of price times quantity over the selection.
func (s *State) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, sel := range s.items {
		sum += sel.Item.Price * int64(sel.Quantity)
	}
	return sum
}

func (s *State) Reset() {
	s.mu.Lock()
	s.items = make(map[string]Selection)
	s.mu.Unlock()
}

// Load seeds the selection from storage. A missing or malformed value
// leaves the selection empty.
func (s *State) Load(ctx context.Context) {
	raw, err := s.store.Get(ctx, kvstore.KeySelectedServingItems)
	items := make(map[string]Selection)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
	case err != nil:
		s.logger.Warn("read serving selection failed", zap.Error(err))
	default:
		var stored []storedItem
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.logger.Warn("serving selection malformed, starting empty", zap.Error(err))
			break
		}
		for _, st := range stored {
			id := st.ID
			if id == "" {
				id = st.MongoID
			}
			if id == "" || st.Quantity <= 0 {
				continue
			}
			items[id] = Selection{
				Item:     entity.MenuItem{ID: id, Name: st.Name, Price: st.Price, Image: st.Image},
				Quantity: st.Quantity,
			}
		}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Continue validates that something is selected and persists the selection.
func (s *State) Continue(ctx context.Context) ([]Selection, error) {
	sel := s.Selected()
	if len(sel) == 0 {
		return nil, ErrEmptySelection
	}
	if err := s.write(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// Persist writes the current selection, empty or not.
func (s *State) Persist(ctx context.Context) error {
	return s.write(ctx, s.Selected())
}

func (s *State) write(ctx context.Context, sel []Selection) error {
	stored := make([]storedItem, 0, len(sel))
	for _, it := range sel {
		stored = append(stored, storedItem{
			ID:       it.Item.ID,
			Name:     it.Item.Name,
			Price:    it.Item.Price,
			Image:    it.Item.Image,
			Quantity: it.Quantity,
		})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, kvstore.KeySelectedServingItems, string(b)); err != nil {
		return fmt.Errorf("save serving selection: %w", err)
	}
	return nil
}
