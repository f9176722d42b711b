package catalog

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
)

// ModeSource yields the packaging mode chosen for the session.
type ModeSource interface {
	PrasadType(ctx context.Context) (entity.PackagingMode, error)
}

// Quantities reports how many of an item are currently selected.
type Quantities interface {
	Quantity(id string) int
}

type Handler struct {
	service *Service
	modes   ModeSource
	cart    Quantities
	serving Quantities
}

func NewHandler(s *Service, modes ModeSource, cart, serving Quantities) *Handler {
	return &Handler{service: s, modes: modes, cart: cart, serving: serving}
}

func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/api/v1/catalog/menu", h.getMenu)
	app.Get("/api/v1/catalog/serving-methods", h.getServingMethods)
	app.Get("/api/v1/catalog/locations", h.getLocations)
}

func (h *Handler) mode(c *fiber.Ctx) (entity.PackagingMode, error) {
	if q := entity.PackagingMode(c.Query("mode")); q != "" {
		return q, nil
	}
	return h.modes.PrasadType(c.UserContext())
}

func (h *Handler) getMenu(c *fiber.Ctx) error {
	mode, err := h.mode(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	if !mode.Valid() {
		return httpx.Message(c, fiber.StatusBadRequest, "select a packaging mode first")
	}
	secs, err := h.service.Menu(c.UserContext(), mode)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(NewSectionViews(secs, quantityOf(h.cart)))
}

func (h *Handler) getServingMethods(c *fiber.Ctx) error {
	mode, err := h.mode(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	if mode != entity.SelfServing {
		return httpx.Message(c, fiber.StatusBadRequest, "serving methods are only offered for self-serving prasad")
	}
	secs, err := h.service.ServingMethods(c.UserContext(), mode)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(NewSectionViews(secs, quantityOf(h.serving)))
}

func (h *Handler) getLocations(c *fiber.Ctx) error {
	locs, err := h.service.Locations(c.UserContext())
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(locs)
}

func quantityOf(q Quantities) func(string) int {
	if q == nil {
		return nil
	}
	return q.Quantity
}
