package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, staticToken(token), nil)
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGet_AttachesBearerAndUnwrapsEnvelope(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"success","data":[{"_id":"loc1","name":"Kalawad Road"},{"id":7},{"name":"no id"}]}`))
	}, "tok")

	locs, err := c.PickupLocations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations with ids, got %+v", locs)
	}
	if locs[0].ID != "loc1" || locs[1].ID != "7" || locs[1].Name != "Unnamed" {
		t.Fatalf("ids not normalized: %+v", locs)
	}
}

func TestNoAuth_OmitsHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no auth header")
		}
		w.Write([]byte(`{"status":"success","data":{"token":"abc","user":{"_id":"u9"}}}`))
	}, "tok")

	res, err := c.Login(context.Background(), LoginRequest{Username: "a", Password: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Token != "abc" || res.UserID != "u9" {
		t.Fatalf("unexpected login result %+v", res)
	}
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		code    int
		errText string
		message string
	}{
		{"server shape", 400, `{"error":"Bad Request","message":"cart cannot be empty"}`, 400, "Bad Request", "cart cannot be empty"},
		{"empty body", 502, ``, 502, DefaultError, DefaultMessage},
		{"non json", 500, `oops`, 500, DefaultError, DefaultMessage},
		{"2xx failure envelope", 200, `{"status":"failed","message":"slot full"}`, 200, DefaultError, "slot full"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}, "")
			err := c.Get(context.Background(), "/x", nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != tc.code || apiErr.Err != tc.errText || apiErr.Message != tc.message {
				t.Fatalf("unexpected normalization %+v", apiErr)
			}
		})
	}
}

func TestTransportFailure_IsAPIError(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil, nil)
	err := c.Get(context.Background(), "/x", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != DefaultCode {
		t.Fatalf("expected default-coded APIError, got %v", err)
	}
	if got := UserMessage(err, "Something went wrong"); got != "Something went wrong" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestExpiredToken_ShortCircuits(t *testing.T) {
	var calls int32
	token := signed(t, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Hour).Unix()})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, token)

	err := c.Get(context.Background(), "/x", nil)
	if !errors.Is(err, ErrTokenExpired) || !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected expired-token 401, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("request should not reach the server")
	}
}

func TestMenu_AcceptsCategoriesShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/self-serving/menu" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":{"categories":[{"name":"Sweets","items":[{"_id":"a","name":"Laddu","price":"10000","rating":4.5}]}]}}`))
	}, "")

	secs, err := c.Menu(context.Background(), entity.SelfServing)
	if err != nil {
		t.Fatal(err)
	}
	if len(secs) != 1 || len(secs[0].Items) != 1 {
		t.Fatalf("unexpected sections %+v", secs)
	}
	it := secs[0].Items[0]
	if it.ID != "a" || it.Price != 10000 || it.Category != "Sweets" {
		t.Fatalf("unexpected item %+v", it)
	}
}

func TestCreateOrder_SendsIdempotencyKeyAndCollapses(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Idempotency-Key") != "key-1" {
			t.Errorf("missing idempotency key")
		}
		<-release
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Order created successfully","data":{"_id":"o1","userId":"u1","servingMethodId":[{"servingMethod":{"_id":"s1","name":"Thali","price":500},"quantity":2}]}}`))
	}, "")

	var wg sync.WaitGroup
	results := make([]entity.Order, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.CreateOrder(context.Background(), entity.SelfServing, CreateOrderRequest{UserID: "u1"}, "key-1")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("call %d failed: %v", i, errs[i])
		}
		if results[i].ID != "o1" || results[i].Subtotal != 1000 {
			t.Fatalf("unexpected order %+v", results[i])
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one upstream call, got %d", n)
	}
}

func TestGetReceipt_NormalizesNestedSummary(t *testing.T) {
	body := `{"status":"success","data":{
		"_id":"r1","status":"unpaid",
		"orderSummary":{"_id":"o1","createdAt":"2026-10-19",
			"orderDate":{"_id":"d1","pickupDate":"10/22/2026","pickupTime":"10:00 AM"},
			"pickupLocation":{"_id":"l1","name":"Mavdi"},
			"items":[{"foodItem":{"name":"Laddu"},"quantity":2,"totalPrice":200}],
			"servingMethodId":[{"servingMethod":{"name":"Thali"},"quantity":1,"totalPrice":50}],
			"totalAmount":250}}}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/order-receipt/o1") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(body))
	}, "")

	rec, err := c.GetReceipt(context.Background(), entity.PrePackaged, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.OrderID != "o1" || rec.Pickup.ID != "d1" || rec.Location.Name != "Mavdi" {
		t.Fatalf("unexpected receipt header %+v", rec)
	}
	if rec.TotalFoodItemsPrice != 200 || rec.TotalServingMethodPrice != 50 || rec.TotalAmount != 250 {
		t.Fatalf("unexpected totals %+v", rec)
	}
	if rec.ServingMethods[0].ID != "s-0" {
		t.Fatalf("unexpected serving line id %q", rec.ServingMethods[0].ID)
	}
}

func TestParseClaims(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()})
	cl, err := ParseClaims(tok)
	if err != nil {
		t.Fatal(err)
	}
	if cl.UserID != "42" || cl.Expired(time.Now()) {
		t.Fatalf("unexpected claims %+v", cl)
	}
	if _, err := ParseClaims("not-a-jwt"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}
