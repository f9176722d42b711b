package order

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/interface/httpx"
)

// Authenticator exchanges credentials for a token. *apiclient.Client
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.LoginResult, error)
}

type Handler struct {
	flow *Flow
	auth Authenticator
}

func NewHandler(f *Flow, auth Authenticator) *Handler {
	return &Handler{flow: f, auth: auth}
}

func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/api/v1/session/login", h.login)
	app.Post("/api/v1/session/logout", h.logout)

	app.Get("/api/v1/flow", h.getFlow)
	app.Post("/api/v1/flow/packaging", h.selectPackaging)
	app.Post("/api/v1/flow/continue", h.continueFlow)
	app.Post("/api/v1/flow/location", h.selectLocation)
	app.Post("/api/v1/flow/pickup", h.schedulePickup)
	app.Get("/api/v1/flow/pickup-prompt", h.pickupPrompt)
	app.Get("/api/v1/flow/summary", h.getSummary)
	app.Post("/api/v1/flow/summary/serving/:id", h.adjustServing)
	app.Post("/api/v1/flow/confirm", h.confirm)
	app.Get("/api/v1/flow/receipt", h.getReceipt)
	app.Post("/api/v1/flow/payment", h.submitPayment)
	app.Post("/api/v1/flow/back", h.back)
	app.Post("/api/v1/flow/reset", h.reset)
}

type loginRequest struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type packagingRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type locationRequest struct {
	LocationID string `json:"locationId"`
}

type pickupRequest struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	EventName string `json:"eventName"`
}

type adjustRequest struct {
	Delta int `json:"delta" validate:"required,min=-99,max=99"`
}

type paymentRequest struct {
	CashierName   string `json:"cashierName"`
	ReceiptNumber string `json:"receiptNumber"`
	PhotoURL      string `json:"photoUrl"`
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return httpx.Message(c, fiber.StatusBadRequest, ve.Message)
	case errors.Is(err, ErrBusy), errors.Is(err, ErrInvalidTransition):
		return httpx.Message(c, fiber.StatusConflict, err.Error())
	default:
		return httpx.Fail(c, err)
	}
}

func (h *Handler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Message(c, fiber.StatusBadRequest, "invalid payload")
	}
	ctx := c.UserContext()
	token, userID := req.Token, req.UserID
	if token == "" {
		if req.Username == "" || req.Password == "" {
			return httpx.Message(c, fiber.StatusBadRequest, "Please enter username and password")
		}
		res, err := h.auth.Login(ctx, apiclient.LoginRequest{Username: req.Username, Password: req.Password})
		if err != nil {
			if apiclient.IsStatus(err, fiber.StatusUnauthorized) {
				return httpx.Message(c, fiber.StatusUnauthorized, apiclient.UserMessage(err, "Invalid username or password"))
			}
			return httpx.Fail(c, err)
		}
		token, userID = res.Token, res.UserID
	}
	if err := h.flow.session.Login(ctx, token, userID); err != nil {
		return httpx.Message(c, fiber.StatusUnauthorized, "invalid token")
	}
	if err := h.flow.Resume(ctx); err != nil && !errors.Is(err, ErrInvalidTransition) {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}

func (h *Handler) logout(c *fiber.Ctx) error {
	if err := h.flow.Reset(c.UserContext()); err != nil {
		return h.fail(c, err)
	}
	if err := h.flow.session.Logout(c.UserContext()); err != nil {
		return httpx.Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) getFlow(c *fiber.Ctx) error {
	return c.JSON(h.flow.Snapshot())
}

func (h *Handler) selectPackaging(c *fiber.Ctx) error {
	var req packagingRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.flow.SelectPackagingMode(c.UserContext(), entity.PackagingMode(req.Mode)); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}

// continueFlow leaves the catalog or the serving-method screen, whichever is
// current.
func (h *Handler) continueFlow(c *fiber.Ctx) error {
	var err error
	if h.flow.State() == SelectingServingMethod {
		err = h.flow.ContinueFromServing(c.UserContext())
	} else {
		_, err = h.flow.ContinueFromCatalog(c.UserContext())
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}

func (h *Handler) selectLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.flow.SelectPickupLocation(c.UserContext(), req.LocationID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}

func (h *Handler) schedulePickup(c *fiber.Ctx) error {
	var req pickupRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	if _, err := h.flow.SchedulePickup(c.UserContext(), req.Date, req.Time, req.EventName); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}

func (h *Handler) pickupPrompt(c *fiber.Ctx) error {
	show := h.flow.session.ConsumePickupPrompt()
	return c.JSON(fiber.Map{
		"show":    show,
		"minDate": MinPickupDate(h.flow.opts.Now(), h.flow.opts.PickupLeadDays).Format(WireDateLayout),
	})
}

func (h *Handler) getSummary(c *fiber.Ctx) error {
	s, err := h.flow.Summary(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(s)
}

func (h *Handler) adjustServing(c *fiber.Ctx) error {
	var req adjustRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	qty, err := h.flow.AdjustServing(c.UserContext(), c.Params("id"), req.Delta)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "quantity": qty})
}

func (h *Handler) confirm(c *fiber.Ctx) error {
	r, err := h.flow.ConfirmOrder(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *Handler) getReceipt(c *fiber.Ctx) error {
	r, err := h.flow.LoadReceipt(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"state": h.flow.State(), "receipt": r})
}

func (h *Handler) submitPayment(c *fiber.Ctx) error {
	var req paymentRequest
	if err := httpx.Bind(c, &req); err != nil {
		return httpx.Fail(c, err)
	}
	r, err := h.flow.SubmitPayment(c.UserContext(), entity.Payment{
		CashierName:   req.CashierName,
		ReceiptNumber: req.ReceiptNumber,
		PhotoURL:      req.PhotoURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}

func (h *Handler) back(c *fiber.Ctx) error {
	if _, err := h.flow.Back(); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}

func (h *Handler) reset(c *fiber.Ctx) error {
	if err := h.flow.Reset(c.UserContext()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.flow.Snapshot())
}
