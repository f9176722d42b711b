package mockapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) registerProtectedRoutes(api fiber.Router) {
	api.Get("/admin/premvati", s.getPremvati)

	m := api.Group("/:mode", s.requireMode)
	m.Get("/menu", s.getMenu)
	m.Get("/serving-methods", s.getServingMethods)
	m.Get("/cart/:userId", s.getCart)
	m.Put("/cart/:userId", s.putCart)
	m.Post("/date", s.postDate)
	m.Post("/create_order", s.createOrder)
	m.Delete("/order/:id", s.cancelOrder)
	m.Post("/create-reciept", s.createReceipt)
	m.Get("/order-receipt/:orderId", s.getReceipt)
	m.Patch("/order-receipt/:id/payment", s.submitPayment)
	m.Get("/order-receipts/:status/:userId", s.listReceipts)
}

func (s *Server) requireMode(c *fiber.Ctx) error {
	if _, ok := s.opts.Seed.Catalog[c.Params("mode")]; !ok {
		return fail(c, fiber.StatusNotFound, "Not Found", "Unknown prasad type")
	}
	return c.Next()
}

// owner checks the :userId path segment against the token.
func owner(c *fiber.Ctx) (string, error) {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return "", err
	}
	if p := c.Params("userId"); p != "" && p != userID {
		return "", ErrForbidden
	}
	return userID, nil
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fiber.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, "Unauthorized", "unauthorized")
	case errors.Is(err, ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Forbidden", "You do not have access to this resource")
	case errors.Is(err, ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Not Found", "Resource not found")
	case errors.Is(err, ErrUnknownItem), errors.Is(err, ErrEmptyOrder):
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, ErrOrderCancelled), errors.Is(err, ErrReceiptExists), errors.Is(err, ErrAlreadyPaid):
		return fail(c, fiber.StatusConflict, "Conflict", err.Error())
	default:
		s.logger.Error("mockapi request failed", zap.String("path", c.Path()), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

func (s *Server) getPremvati(c *fiber.Ctx) error {
	out := make([]fiber.Map, 0, len(s.opts.Seed.Premvati))
	for _, l := range s.opts.Seed.Premvati {
		out = append(out, renderLocation(l))
	}
	return ok(c, fiber.StatusOK, "Premvati fetched", out)
}

// The menu is served in the categories shape with Mongo-style ids and the
// serving methods in the sections shape with plain ids; clients accept both.
func (s *Server) getMenu(c *fiber.Ctx) error {
	cat := s.opts.Seed.Catalog[c.Params("mode")]
	return ok(c, fiber.StatusOK, "Menu fetched", fiber.Map{"categories": renderSections(cat.Menu, "_id")})
}

func (s *Server) getServingMethods(c *fiber.Ctx) error {
	cat := s.opts.Seed.Catalog[c.Params("mode")]
	return ok(c, fiber.StatusOK, "Serving methods fetched", fiber.Map{"sections": renderSections(cat.ServingMethods, "id")})
}

func (s *Server) getCart(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return s.writeError(c, err)
	}
	id, lines := s.repo.Cart(c.Params("mode"), userID)
	return ok(c, fiber.StatusOK, "Cart fetched", renderCart(id, lines))
}

type cartLineRequest struct {
	FoodItem string `json:"foodItem"`
	Quantity int    `json:"quantity"`
}

type cartRequest struct {
	Items []cartLineRequest `json:"items"`
}

func (s *Server) putCart(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return s.writeError(c, err)
	}
	payload := new(cartRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	qty := make(map[string]int, len(payload.Items))
	for _, l := range payload.Items {
		qty[l.FoodItem] += l.Quantity
	}
	id, lines, err := s.repo.ReplaceCart(c.Params("mode"), userID, qty)
	if err != nil {
		return s.writeError(c, err)
	}
	return ok(c, fiber.StatusOK, "Cart updated", renderCart(id, lines))
}

type dateRequest struct {
	PickupDate string `json:"pickupDate"`
	PickupTime string `json:"pickupTime"`
	EventName  string `json:"eventName"`
}

func (s *Server) postDate(c *fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return s.writeError(c, err)
	}
	payload := new(dateRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	if _, err := time.Parse("01/02/2006", payload.PickupDate); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", "pickupDate must be MM/DD/YYYY")
	}
	if _, err := time.Parse("03:04 PM", payload.PickupTime); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", "pickupTime must be hh:mm AM/PM")
	}
	slot := s.repo.SaveSlot(userID, payload.PickupDate, payload.PickupTime, payload.EventName)
	return ok(c, fiber.StatusCreated, "Pickup date saved", renderSlot(slot))
}

type servingLineRequest struct {
	ServingMethod string `json:"servingMethod"`
	Quantity      int    `json:"quantity"`
}

type createOrderRequest struct {
	UserID          string               `json:"userId"`
	ServingMethodID []servingLineRequest `json:"servingMethodId"`
	Items           []cartLineRequest    `json:"items"`
}

func (s *Server) createOrder(c *fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return s.writeError(c, err)
	}
	payload := new(createOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	if payload.UserID != "" && payload.UserID != userID {
		return s.writeError(c, ErrForbidden)
	}
	items := make(map[string]int, len(payload.Items))
	for _, l := range payload.Items {
		items[l.FoodItem] += l.Quantity
	}
	serving := make(map[string]int, len(payload.ServingMethodID))
	for _, l := range payload.ServingMethodID {
		serving[l.ServingMethod] += l.Quantity
	}

	o, replayed, err := s.repo.CreateOrder(c.Params("mode"), userID, c.Get("Idempotency-Key"), items, serving)
	if err != nil {
		return s.writeError(c, err)
	}
	if replayed {
		c.Set("Idempotency-Replayed", "true")
		return ok(c, fiber.StatusOK, "Order created successfully", s.renderOrder(o, "", ""))
	}
	s.logger.Info("order created", zap.String("orderId", o.ID), zap.Int64("total", o.Total))
	return ok(c, fiber.StatusCreated, "Order created successfully", s.renderOrder(o, "", ""))
}

func (s *Server) cancelOrder(c *fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.repo.CancelOrder(c.Params("id"), userID); err != nil {
		return s.writeError(c, err)
	}
	return ok(c, fiber.StatusOK, "Order cancelled", nil)
}

type receiptRequest struct {
	OrderID        string `json:"orderId"`
	OrderDate      string `json:"orderDate"`
	PickupLocation string `json:"pickupLocation"`
}

func (s *Server) createReceipt(c *fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return s.writeError(c, err)
	}
	payload := new(receiptRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	if payload.OrderID == "" || payload.OrderDate == "" || payload.PickupLocation == "" {
		return fail(c, fiber.StatusBadRequest, "Bad Request", "orderId, orderDate and pickupLocation are required")
	}
	if s.failReceipts.Load() {
		// reported inside a 200 the way the real service does
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "failed", "message": "Could not create receipt."})
	}
	rc, err := s.repo.CreateReceipt(userID, payload.OrderID, payload.OrderDate, payload.PickupLocation)
	if err != nil {
		return s.writeError(c, err)
	}
	return ok(c, fiber.StatusCreated, "Receipt created successfully", s.renderReceipt(rc))
}

func (s *Server) getReceipt(c *fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return s.writeError(c, err)
	}
	rc, err := s.repo.ReceiptByOrder(c.Params("orderId"))
	if err != nil {
		return s.writeError(c, err)
	}
	if rc.UserID != userID {
		return s.writeError(c, ErrForbidden)
	}
	return ok(c, fiber.StatusOK, "Receipt fetched", s.renderReceipt(rc))
}

func (s *Server) listReceipts(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return s.writeError(c, err)
	}
	status := c.Params("status")
	if status != receiptPaid && status != receiptUnpaid {
		return fail(c, fiber.StatusBadRequest, "Bad Request", "status must be paid or unpaid")
	}
	list := s.repo.Receipts(c.Params("mode"), userID, status)
	out := make([]fiber.Map, 0, len(list))
	for _, rc := range list {
		out = append(out, s.renderReceipt(rc))
	}
	return ok(c, fiber.StatusOK, "Receipts fetched", out)
}

type paymentRequest struct {
	CashierName   string `json:"cashierName"`
	ReceiptNumber string `json:"receiptNumber"`
	PhotoURL      string `json:"photoUrl"`
}

func (s *Server) submitPayment(c *fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return s.writeError(c, err)
	}
	payload := new(paymentRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	if payload.CashierName == "" || payload.ReceiptNumber == "" || payload.PhotoURL == "" {
		return fail(c, fiber.StatusBadRequest, "Bad Request", "cashierName, receiptNumber and photoUrl are required")
	}
	rc, err := s.repo.SubmitPayment(c.Params("id"), userID, payment(*payload))
	if err != nil {
		return s.writeError(c, err)
	}
	return ok(c, fiber.StatusOK, "Payment submitted for approval", s.renderReceipt(rc))
}

func renderItem(it SeedItem, idKey string) fiber.Map {
	m := fiber.Map{
		idKey:         it.ID,
		"name":        it.Name,
		"description": it.Description,
		"price":       it.Price,
		"image":       it.Image,
		"isVeg":       it.IsVeg,
		"rating":      it.Rating,
	}
	if len(it.Tags) > 0 {
		m["tags"] = it.Tags
	}
	return m
}

func renderSections(secs []SeedSection, idKey string) []fiber.Map {
	out := make([]fiber.Map, 0, len(secs))
	for _, sec := range secs {
		items := make([]fiber.Map, 0, len(sec.Items))
		for _, it := range sec.Items {
			items = append(items, renderItem(it, idKey))
		}
		out = append(out, fiber.Map{idKey: sec.ID, "name": sec.Name, "items": items})
	}
	return out
}

func renderLocation(l SeedLocation) fiber.Map {
	return fiber.Map{"_id": l.ID, "name": l.Name, "image": l.Image}
}

func renderSlot(s pickupSlot) fiber.Map {
	return fiber.Map{"_id": s.ID, "pickupDate": s.Date, "pickupTime": s.Time, "eventName": s.EventName}
}

func renderCart(id string, lines []line) fiber.Map {
	items := make([]fiber.Map, 0, len(lines))
	for _, l := range lines {
		items = append(items, fiber.Map{"foodItem": renderItem(l.Item, "_id"), "quantity": l.Quantity})
	}
	return fiber.Map{"_id": id, "items": items}
}

func renderLines(lines []line, key string) []fiber.Map {
	out := make([]fiber.Map, 0, len(lines))
	for _, l := range lines {
		out = append(out, fiber.Map{
			key:          renderItem(l.Item, "_id"),
			"quantity":   l.Quantity,
			"price":      l.Item.Price,
			"totalPrice": l.Item.Price * int64(l.Quantity),
		})
	}
	return out
}

// renderOrder populates orderDate and pickupLocation when ids are given.
func (s *Server) renderOrder(o order, slotID, locationID string) fiber.Map {
	m := fiber.Map{
		"_id":             o.ID,
		"userId":          o.UserID,
		"items":           renderLines(o.Items, "foodItem"),
		"servingMethodId": renderLines(o.Serving, "servingMethod"),
		"subtotal":        o.Subtotal,
		"tax":             o.Tax,
		"deliveryFee":     o.DeliveryFee,
		"totalAmount":     o.Total,
		"status":          o.Status,
		"createdAt":       o.CreatedAt.Format(time.RFC3339),
	}
	if slot, ok := s.repo.Slot(slotID); ok {
		m["orderDate"] = renderSlot(slot)
	}
	if loc, ok := s.repo.Location(locationID); ok {
		m["pickupLocation"] = renderLocation(loc)
	}
	return m
}

func (s *Server) renderReceipt(rc receipt) fiber.Map {
	m := fiber.Map{
		"_id":       rc.ID,
		"orderId":   rc.OrderID,
		"status":    rc.Status,
		"createdAt": rc.CreatedAt.Format(time.RFC3339),
	}
	if o, err := s.repo.Order(rc.OrderID); err == nil {
		var food, serving int64
		for _, l := range o.Items {
			food += l.Item.Price * int64(l.Quantity)
		}
		for _, l := range o.Serving {
			serving += l.Item.Price * int64(l.Quantity)
		}
		m["orderSummary"] = s.renderOrder(o, rc.PickupID, rc.LocationID)
		m["totalFoodItemsPrice"] = food
		m["totalServingMethodPrice"] = serving
		m["totalAmount"] = strconv.FormatInt(o.Total, 10)
	}
	if rc.Payment != nil {
		m["payment"] = fiber.Map{
			"cashierName":   rc.Payment.CashierName,
			"receiptNumber": rc.Payment.ReceiptNumber,
			"photoUrl":      rc.Payment.PhotoURL,
		}
	}
	return m
}
