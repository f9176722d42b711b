package cart

import (
	"math/rand"
	"testing"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

func checkInvariants(t *testing.T, s State) {
	t.Helper()
	var amount int64
	var count int
	for id, it := range s.Items {
		if it.Quantity < 1 {
			t.Fatalf("item %s has non-positive quantity %d", id, it.Quantity)
		}
		amount += it.MenuItem.Price * int64(it.Quantity)
		count += it.Quantity
	}
	if amount != s.TotalAmount || count != s.TotalItems {
		t.Fatalf("totals drifted: want %d/%d, got %d/%d", amount, count, s.TotalAmount, s.TotalItems)
	}
}

func TestStore_ScenarioAddIncrementDecrement(t *testing.T) {
	s := NewStore()
	a := entity.MenuItem{ID: "a", Name: "Ladoo", Price: 10000}

	s.AddItem(a)
	if snap := s.Snapshot(); snap.TotalItems != 1 || snap.TotalAmount != 10000 {
		t.Fatalf("after add: got %d/%d", snap.TotalItems, snap.TotalAmount)
	}

	s.IncrementItem("a")
	s.IncrementItem("a")
	if snap := s.Snapshot(); snap.TotalItems != 3 || snap.TotalAmount != 30000 {
		t.Fatalf("after +2: got %d/%d", snap.TotalItems, snap.TotalAmount)
	}

	s.DecrementItem("a")
	s.DecrementItem("a")
	s.DecrementItem("a")
	snap := s.Snapshot()
	if len(snap.Items) != 0 || snap.TotalItems != 0 || snap.TotalAmount != 0 {
		t.Fatalf("after -3 expected empty cart, got %+v", snap)
	}
}

func TestStore_AbsentIDsAreNoOps(t *testing.T) {
	s := NewStore()
	s.IncrementItem("ghost")
	s.DecrementItem("ghost")
	s.RemoveItem("ghost")
	if snap := s.Snapshot(); len(snap.Items) != 0 || snap.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", snap)
	}
}

func TestStore_RandomSequencesKeepTotals(t *testing.T) {
	items := []entity.MenuItem{
		{ID: "a", Price: 10000},
		{ID: "b", Price: 2550},
		{ID: "c", Price: 1},
		{ID: "d", Price: 0},
	}
	rng := rand.New(rand.NewSource(42))
	s := NewStore()
	for step := 0; step < 5000; step++ {
		it := items[rng.Intn(len(items))]
		switch rng.Intn(5) {
		case 0:
			s.AddItem(it)
		case 1:
			s.IncrementItem(it.ID)
		case 2:
			s.DecrementItem(it.ID)
		case 3:
			if rng.Intn(10) == 0 {
				s.RemoveItem(it.ID)
			}
		case 4:
			if rng.Intn(50) == 0 {
				s.ClearCart()
			}
		}
		checkInvariants(t, s.Snapshot())
	}

	s.ClearCart()
	if snap := s.Snapshot(); len(snap.Items) != 0 || snap.TotalAmount != 0 || snap.TotalItems != 0 {
		t.Fatalf("ClearCart left %+v", snap)
	}
}

func TestStore_SubscribersSeeEveryMutation(t *testing.T) {
	s := NewStore()
	var seen []int
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st.TotalItems) })

	s.AddItem(entity.MenuItem{ID: "a", Price: 5})
	s.AddItem(entity.MenuItem{ID: "a", Price: 5})
	unsubscribe()
	s.AddItem(entity.MenuItem{ID: "a", Price: 5})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

func TestStore_ReplaceDropsEmptyLines(t *testing.T) {
	s := NewStore()
	s.Replace([]Item{
		{MenuItem: entity.MenuItem{ID: "a", Price: 100}, Quantity: 2},
		{MenuItem: entity.MenuItem{ID: "b", Price: 100}, Quantity: 0},
	})
	snap := s.Snapshot()
	if len(snap.Items) != 1 || snap.TotalAmount != 200 {
		t.Fatalf("unexpected state %+v", snap)
	}
}
