package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token  string
	UserID string
}

type CartLineInput struct {
	FoodItem string `json:"foodItem"`
	Quantity int    `json:"quantity"`
}

type ServingLineInput struct {
	ServingMethod string `json:"servingMethod"`
	Quantity      int    `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID          string             `json:"userId"`
	ServingMethodID []ServingLineInput `json:"servingMethodId"`
	Items           []CartLineInput    `json:"items,omitempty"`
}

type PickupRequest struct {
	PickupDate string `json:"pickupDate"`
	PickupTime string `json:"pickupTime"`
	EventName  string `json:"eventName"`
}

type ReceiptRequest struct {
	OrderID        string `json:"orderId"`
	OrderDate      string `json:"orderDate"`
	PickupLocation string `json:"pickupLocation"`
}

func seg(mode entity.PackagingMode) string {
	return "/" + url.PathEscape(string(mode))
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var w wireLogin
	if err := c.PostNoAuth(ctx, "/auth/login", req, &w); err != nil {
		return LoginResult{}, err
	}
	res := LoginResult{Token: w.Token, UserID: string(w.UserID)}
	if res.UserID == "" && w.User != nil {
		res.UserID = w.User.canonical()
	}
	return res, nil
}

func (c *Client) Menu(ctx context.Context, mode entity.PackagingMode) ([]entity.Section, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, seg(mode)+"/menu", &raw); err != nil {
		return nil, err
	}
	return decodeSections(raw)
}

func (c *Client) ServingMethods(ctx context.Context, mode entity.PackagingMode) ([]entity.Section, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, seg(mode)+"/serving-methods", &raw); err != nil {
		return nil, err
	}
	return decodeSections(raw)
}

func (c *Client) PickupLocations(ctx context.Context) ([]entity.PickupLocation, error) {
	var w []wireLocation
	if err := c.Get(ctx, "/admin/premvati", &w); err != nil {
		return nil, err
	}
	out := make([]entity.PickupLocation, 0, len(w))
	for _, l := range w {
		loc := l.toEntity()
		if loc.ID == "" {
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

func (c *Client) GetCart(ctx context.Context, mode entity.PackagingMode, userID string) (entity.ServerCart, error) {
	var w wireCart
	if err := c.Get(ctx, seg(mode)+"/cart/"+url.PathEscape(userID), &w); err != nil {
		return entity.ServerCart{}, err
	}
	return w.toEntity(), nil
}

// UpdateCart replaces the server cart with lines, creating it when absent.
func (c *Client) UpdateCart(ctx context.Context, mode entity.PackagingMode, userID string, lines []CartLineInput) (entity.ServerCart, error) {
	var w wireCart
	body := map[string]any{"items": lines}
	if err := c.Put(ctx, seg(mode)+"/cart/"+url.PathEscape(userID), body, &w); err != nil {
		return entity.ServerCart{}, err
	}
	return w.toEntity(), nil
}

func (c *Client) SavePickupDate(ctx context.Context, mode entity.PackagingMode, req PickupRequest) (entity.PickupDetails, error) {
	var w wirePickup
	if err := c.Post(ctx, seg(mode)+"/date", req, &w); err != nil {
		return entity.PickupDetails{}, err
	}
	return w.toEntity(), nil
}

// CreateOrder sends the Idempotency-Key header so the server can drop replays.
// Concurrent calls sharing a key are collapsed into one request.
func (c *Client) CreateOrder(ctx context.Context, mode entity.PackagingMode, req CreateOrderRequest, idempotencyKey string) (entity.Order, error) {
	v, err, shared := c.orders.Do(idempotencyKey, func() (any, error) {
		var w wireOrder
		headers := map[string]string{"Idempotency-Key": idempotencyKey}
		if err := c.do(ctx, http.MethodPost, seg(mode)+"/create_order", req, &w, true, headers); err != nil {
			return entity.Order{}, err
		}
		return w.toEntity(), nil
	})
	if shared {
		c.logger.Debug("create_order collapsed into in-flight request")
	}
	order, _ := v.(entity.Order)
	if err != nil {
		return entity.Order{}, err
	}
	if order.ID == "" {
		return entity.Order{}, newAPIError(http.StatusBadGateway, "Bad Gateway", "Order created without an id.", nil)
	}
	return order, nil
}

func (c *Client) CancelOrder(ctx context.Context, mode entity.PackagingMode, orderID string) error {
	return c.Delete(ctx, seg(mode)+"/order/"+url.PathEscape(orderID), nil)
}

func (c *Client) CreateReceipt(ctx context.Context, mode entity.PackagingMode, req ReceiptRequest) (entity.Receipt, error) {
	var w wireReceipt
	if err := c.Post(ctx, seg(mode)+"/create-reciept", req, &w); err != nil {
		return entity.Receipt{}, err
	}
	r := w.toEntity()
	if r.OrderID == "" {
		r.OrderID = req.OrderID
	}
	return r, nil
}

func (c *Client) GetReceipt(ctx context.Context, mode entity.PackagingMode, orderID string) (entity.Receipt, error) {
	var w wireReceipt
	if err := c.Get(ctx, seg(mode)+"/order-receipt/"+url.PathEscape(orderID), &w); err != nil {
		return entity.Receipt{}, err
	}
	return w.toEntity(), nil
}

func (c *Client) ListReceipts(ctx context.Context, mode entity.PackagingMode, status, userID string) ([]entity.Receipt, error) {
	if status != entity.ReceiptPaid && status != entity.ReceiptUnpaid {
		return nil, fmt.Errorf("apiclient: unknown receipt status %q", status)
	}
	var w []wireReceipt
	if err := c.Get(ctx, seg(mode)+"/order-receipts/"+status+"/"+url.PathEscape(userID), &w); err != nil {
		return nil, err
	}
	out := make([]entity.Receipt, 0, len(w))
	for _, r := range w {
		out = append(out, r.toEntity())
	}
	return out, nil
}

func (c *Client) SubmitPayment(ctx context.Context, mode entity.PackagingMode, receiptID string, p entity.Payment) (entity.Receipt, error) {
	var w wireReceipt
	if err := c.Patch(ctx, seg(mode)+"/order-receipt/"+url.PathEscape(receiptID)+"/payment", p, &w); err != nil {
		return entity.Receipt{}, err
	}
	return w.toEntity(), nil
}
