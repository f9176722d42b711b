package catalog

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

type fakeSource struct {
	menuCalls atomic.Int32
	delay     time.Duration
}

func (f *fakeSource) Menu(_ context.Context, mode entity.PackagingMode) ([]entity.Section, error) {
	f.menuCalls.Add(1)
	time.Sleep(f.delay)
	return []entity.Section{{ID: "sweets", Name: "Sweets", Items: []entity.MenuItem{
		{ID: "ladoo", Name: "Ladoo", Price: 10000, Rating: 4.5, IsVeg: true, Tags: []string{"Bestseller"}},
		{ID: "peda", Name: "Peda", Price: 5050, Rating: 3},
	}}}, nil
}

func (f *fakeSource) ServingMethods(context.Context, entity.PackagingMode) ([]entity.Section, error) {
	return []entity.Section{{ID: "vessels", Name: "Vessels", Items: []entity.MenuItem{{ID: "s1", Name: "Thali", Price: 500}}}}, nil
}

func (f *fakeSource) PickupLocations(context.Context) ([]entity.PickupLocation, error) {
	return []entity.PickupLocation{{ID: "loc-1", Name: "North Gate"}}, nil
}

type staticMode entity.PackagingMode

func (m staticMode) PrasadType(context.Context) (entity.PackagingMode, error) {
	return entity.PackagingMode(m), nil
}

type fixedQty map[string]int

func (q fixedQty) Quantity(id string) int { return q[id] }

func TestFormatINR(t *testing.T) {
	cases := map[int64]string{0: "₹0.00", 10000: "₹100.00", 5050: "₹50.50", 7: "₹0.07"}
	for in, want := range cases {
		if got := FormatINR(in); got != want {
			t.Fatalf("FormatINR(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStars(t *testing.T) {
	got := Stars(3.5)
	want := []Star{StarFull, StarFull, StarFull, StarHalf, StarEmpty}
	if len(got) != len(want) {
		t.Fatalf("expected %d stars, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("star %d: want %s, got %s", i, want[i], got[i])
		}
	}
	if s := Stars(7); s[4] != StarFull {
		t.Fatalf("ratings above 5 clamp to five full stars, got %v", s)
	}
	if s := Stars(0); s[0] != StarEmpty {
		t.Fatalf("zero rating should be all empty, got %v", s)
	}
}

func TestService_CachesAndCollapsesLoads(t *testing.T) {
	src := &fakeSource{delay: 20 * time.Millisecond}
	svc := NewService(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Menu(context.Background(), entity.PrePackaged); err != nil {
				t.Errorf("menu: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := svc.Menu(context.Background(), entity.PrePackaged); err != nil {
		t.Fatalf("menu: %v", err)
	}
	if n := src.menuCalls.Load(); n != 1 {
		t.Fatalf("expected a single upstream load, got %d", n)
	}

	it, err := svc.Lookup("ladoo")
	if err != nil || it.Price != 10000 {
		t.Fatalf("lookup ladoo: %+v %v", it, err)
	}
	if _, err := svc.Lookup("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	svc.Invalidate()
	if _, err := svc.Lookup("ladoo"); err != ErrNotFound {
		t.Fatalf("expected cache cleared after Invalidate")
	}
}

func TestHandler_MenuCardsCarryCartQuantity(t *testing.T) {
	svc := NewService(&fakeSource{}, nil)
	h := NewHandler(svc, staticMode(entity.PrePackaged), fixedQty{"ladoo": 2}, nil)
	app := fiber.New()
	h.RegisterRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/catalog/menu", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var views []SectionView
	if err := json.NewDecoder(res.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || len(views[0].Cards) != 2 {
		t.Fatalf("unexpected views: %+v", views)
	}
	card := views[0].Cards[0]
	if card.Quantity != 2 || card.Price != "₹100.00" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if len(card.Tags) != 2 || card.Tags[0].Variant != TagSuccess {
		t.Fatalf("expected veg tag first, got %+v", card.Tags)
	}
}

func TestHandler_ServingMethodsRequireSelfServing(t *testing.T) {
	svc := NewService(&fakeSource{}, nil)
	app := fiber.New()
	NewHandler(svc, staticMode(entity.PrePackaged), nil, nil).RegisterRoutes(app)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/catalog/serving-methods", nil))
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for pre-packaged, got %d", res.StatusCode)
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/catalog/serving-methods?mode=self-serving", nil))
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 with explicit mode, got %d", res2.StatusCode)
	}
}
