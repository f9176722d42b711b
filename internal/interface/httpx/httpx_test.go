package httpx

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/session"
)

type quantityRequest struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0,max=99"`
}

func TestBind_ReportsFieldErrors(t *testing.T) {
	app := fiber.New()
	app.Post("/q", func(c *fiber.Ctx) error {
		var req quantityRequest
		if err := Bind(c, &req); err != nil {
			return Fail(c, err)
		}
		return c.JSON(req)
	})

	req := httptest.NewRequest("POST", "/q", strings.NewReader(`{"quantity":-1}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	_ = json.NewDecoder(res.Body).Decode(&body)
	if body.Errors["id"] != "is required" {
		t.Fatalf("expected id error, got %v", body.Errors)
	}
	if body.Errors["quantity"] != "must be at least 0" {
		t.Fatalf("expected quantity error, got %v", body.Errors)
	}
}

func TestFail_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{session.ErrMissingSession, fiber.StatusUnauthorized},
		{errors.New("disk full"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return Fail(c, tc.err) })
		res, _ := app.Test(httptest.NewRequest("GET", "/", nil))
		if res.StatusCode != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, res.StatusCode)
		}
	}
}
