package cart

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/catalog"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
)

// Lookup resolves menu item ids. *catalog.Service satisfies it.
type Lookup interface {
	Lookup(id string) (entity.MenuItem, error)
}

// Gate decides whether the cart may change right now. The order flow locks
// the cart once it has been synced to the server.
type Gate interface {
	CartEditable() error
}

// Handler exposes the local cart store.
type Handler struct {
	service *Service
	items   Lookup
	gate    Gate
}

func NewHandler(s *Service, items Lookup) *Handler {
	return &Handler{service: s, items: items}
}

// WithGate rejects mutations while g reports the cart locked.
func (h *Handler) WithGate(g Gate) *Handler {
	h.gate = g
	return h
}

func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/api/v1/cart", h.getCart)
	app.Delete("/api/v1/cart", h.guard, h.clearCart)
	app.Post("/api/v1/cart/items", h.guard, h.addItem)
	app.Post("/api/v1/cart/items/:id/increment", h.guard, h.incrementItem)
	app.Post("/api/v1/cart/items/:id/decrement", h.guard, h.decrementItem)
	app.Delete("/api/v1/cart/items/:id", h.guard, h.removeItem)
}

func (h *Handler) guard(c *fiber.Ctx) error {
	if h.gate != nil {
		if err := h.gate.CartEditable(); err != nil {
			return httpx.Message(c, fiber.StatusConflict, err.Error())
		}
	}
	return c.Next()
}

type addItemRequest struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
}

// LineView is a cart row as shown on the cart screen.
type LineView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type View struct {
	Items           []LineView `json:"items"`
	TotalItems      int        `json:"totalItems"`
	TotalAmount     int64      `json:"totalAmount"`
	TotalAmountText string     `json:"totalAmountText"`
	Empty           bool       `json:"empty"`
}

func NewView(s State) View {
	v := View{
		Items:           make([]LineView, 0, len(s.Items)),
		TotalItems:      s.TotalItems,
		TotalAmount:     s.TotalAmount,
		TotalAmountText: catalog.FormatINR(s.TotalAmount),
		Empty:           len(s.Items) == 0,
	}
	for _, it := range s.Lines() {
		v.Items = append(v.Items, LineView{
			ID:        it.MenuItem.ID,
			Name:      it.MenuItem.Name,
			Image:     it.MenuItem.Image,
			Price:     catalog.FormatINR(it.MenuItem.Price),
			Quantity:  it.Quantity,
			LineTotal: catalog.FormatINR(it.MenuItem.Price * int64(it.Quantity)),
		})
	}
	return v
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	return c.JSON(NewView(h.service.Store().Snapshot()))
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	it, err := h.items.Lookup(req.MenuItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return httpx.Message(c, fiber.StatusNotFound, "menu item not found")
		}
		return httpx.Fail(c, err)
	}
	h.service.Store().AddItem(it)
	return c.JSON(NewView(h.service.Store().Snapshot()))
}

func (h *Handler) incrementItem(c *fiber.Ctx) error {
	h.service.Store().IncrementItem(c.Params("id"))
	return c.JSON(NewView(h.service.Store().Snapshot()))
}

func (h *Handler) decrementItem(c *fiber.Ctx) error {
	h.service.Store().DecrementItem(c.Params("id"))
	return c.JSON(NewView(h.service.Store().Snapshot()))
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	h.service.Store().RemoveItem(c.Params("id"))
	return c.JSON(NewView(h.service.Store().Snapshot()))
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	h.service.Store().ClearCart()
	return c.SendStatus(fiber.StatusNoContent)
}
