package cart

import (
	"sort"
	"sync"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

// Item is a menu item with the quantity chosen. Quantity is always >= 1; an
// item that would drop to zero is removed instead.
type Item struct {
	MenuItem entity.MenuItem `json:"menuItem"`
	Quantity int             `json:"quantity"`
}

// State is an immutable snapshot of the cart.
type State struct {
	Items       map[string]Item `json:"items"`
	TotalAmount int64           `json:"totalAmount"`
	TotalItems  int             `json:"totalItems"`
}

// Lines returns the items ordered by name, then id.
func (s State) Lines() []Item {
	out := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MenuItem.Name != out[j].MenuItem.Name {
			return out[i].MenuItem.Name < out[j].MenuItem.Name
		}
		return out[i].MenuItem.ID < out[j].MenuItem.ID
	})
	return out
}

// Store is the local cart. Every mutation recomputes the totals before it
// returns and then notifies subscribers with a fresh snapshot.
type Store struct {
	mu          sync.RWMutex
	items       map[string]Item
	totalAmount int64
	totalItems  int

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

func NewStore() *Store {
	return &Store{items: make(map[string]Item), subs: make(map[int]func(State))}
}

// AddItem inserts the item with quantity 1, or increments it when present.
func (s *Store) AddItem(it entity.MenuItem) {
	s.mutate(func() {
		cur, ok := s.items[it.ID]
		if !ok {
			s.items[it.ID] = Item{MenuItem: it, Quantity: 1}
			return
		}
		cur.Quantity++
		s.items[it.ID] = cur
	})
}

// IncrementItem is a no-op for an id not in the cart.
func (s *Store) IncrementItem(id string) {
	s.mutate(func() {
		cur, ok := s.items[id]
		if !ok {
			return
		}
		cur.Quantity++
		s.items[id] = cur
	})
}

// DecrementItem removes the item when it drops from 1. No-op when absent.
func (s *Store) DecrementItem(id string) {
	s.mutate(func() {
		cur, ok := s.items[id]
		if !ok {
			return
		}
		if cur.Quantity <= 1 {
			delete(s.items, id)
			return
		}
		cur.Quantity--
		s.items[id] = cur
	})
}

func (s *Store) RemoveItem(id string) {
	s.mutate(func() {
		delete(s.items, id)
	})
}

func (s *Store) ClearCart() {
	s.mutate(func() {
		s.items = make(map[string]Item)
	})
}

// Replace swaps the whole cart, e.g. with the contents of the server cart.
// Non-positive quantities are dropped.
func (s *Store) Replace(items []Item) {
	s.mutate(func() {
		s.items = make(map[string]Item, len(items))
		for _, it := range items {
			if it.Quantity <= 0 || it.MenuItem.ID == "" {
				continue
			}
			s.items[it.MenuItem.ID] = it
		}
	})
}

func (s *Store) Quantity(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id].Quantity
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned func unsubscribes. fn must not block.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.recalculate()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) recalculate() {
	var amount int64
	var count int
	for _, it := range s.items {
		amount += it.MenuItem.Price * int64(it.Quantity)
		count += it.Quantity
	}
	s.totalAmount = amount
	s.totalItems = count
}

func (s *Store) snapshotLocked() State {
	items := make(map[string]Item, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	return State{Items: items, TotalAmount: s.totalAmount, TotalItems: s.totalItems}
}
