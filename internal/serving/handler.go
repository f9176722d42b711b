package serving

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/catalog"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
)

type Lookup interface {
	Lookup(id string) (entity.MenuItem, error)
}

// Gate decides whether the selection may change through this handler.
type Gate interface {
	ServingEditable() error
}

type Handler struct {
	state *State
	items Lookup
	gate  Gate
}

func NewHandler(state *State, items Lookup) *Handler {
	return &Handler{state: state, items: items}
}

func (h *Handler) WithGate(g Gate) *Handler {
	h.gate = g
	return h
}

func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/api/v1/serving", h.getSelection)
	app.Put("/api/v1/serving/:id", h.guard, h.setQuantity)
}

func (h *Handler) guard(c *fiber.Ctx) error {
	if h.gate != nil {
		if err := h.gate.ServingEditable(); err != nil {
			return httpx.Message(c, fiber.StatusConflict, err.Error())
		}
	}
	return c.Next()
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"max=999"`
}

type lineView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type selectionView struct {
	Items     []lineView `json:"items"`
	Total     int64      `json:"total"`
	TotalText string     `json:"totalText"`
}

func (h *Handler) view() selectionView {
	sel := h.state.Selected()
	v := selectionView{Items: make([]lineView, 0, len(sel)), Total: h.state.Total()}
	v.TotalText = catalog.FormatINR(v.Total)
	for _, s := range sel {
		v.Items = append(v.Items, lineView{ID: s.Item.ID, Name: s.Item.Name, Price: catalog.FormatINR(s.Item.Price), Quantity: s.Quantity})
	}
	return v
}

func (h *Handler) getSelection(c *fiber.Ctx) error {
	return c.JSON(h.view())
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	var req quantityRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	id := c.Params("id")
	item, err := h.items.Lookup(id)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			return httpx.Fail(c, err)
		}
		// items restored from storage may not be in the loaded catalog yet
		if !h.state.SetKnownQuantity(id, req.Quantity) {
			return httpx.Message(c, fiber.StatusNotFound, "serving method not found")
		}
		return c.JSON(h.view())
	}
	h.state.SetItemQuantity(item, req.Quantity)
	return c.JSON(h.view())
}
