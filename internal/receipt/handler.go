package receipt

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/api/v1/receipts", h.list)
	app.Get("/api/v1/receipts/:orderId", h.get)
	app.Get("/api/v1/receipts/:orderId/text", h.text)
	app.Patch("/api/v1/receipts/:id/payment", h.pay)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var pe *PaymentError
	switch {
	case errors.Is(err, ErrUnknownStatus):
		return httpx.Message(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &pe):
		return httpx.Message(c, fiber.StatusBadRequest, pe.Message)
	default:
		return httpx.Fail(c, err)
	}
}

func (h *Handler) list(c *fiber.Ctx) error {
	status := c.Query("status", entity.ReceiptUnpaid)
	out, err := h.service.List(c.UserContext(), status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

func (h *Handler) get(c *fiber.Ctx) error {
	r, err := h.service.Get(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}

func (h *Handler) text(c *fiber.Ctx) error {
	width := DefaultWidth
	if w, err := strconv.Atoi(c.Query("width")); err == nil {
		width = w
	}
	r, err := h.service.Get(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(Text(r, width))
}

func (h *Handler) pay(c *fiber.Ctx) error {
	var p entity.Payment
	if err := c.BodyParser(&p); err != nil {
		return httpx.Message(c, fiber.StatusBadRequest, "invalid payload")
	}
	r, err := h.service.Pay(c.UserContext(), c.Params("id"), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}
