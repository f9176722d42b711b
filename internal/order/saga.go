package order

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

// placeOrder creates the server order for the current cart and serving
// selection. An earlier live order that it replaces is cancelled first.
// Callers hold the transition slot.
func (f *Flow) placeOrder(ctx context.Context) (entity.Order, error) {
	userID, mode, err := f.session.Identity(ctx)
	if err != nil {
		return entity.Order{}, err
	}
	req := apiclient.CreateOrderRequest{UserID: userID, ServingMethodID: []apiclient.ServingLineInput{}}
	for _, it := range f.cart.Store().Snapshot().Lines() {
		req.Items = append(req.Items, apiclient.CartLineInput{FoodItem: it.MenuItem.ID, Quantity: it.Quantity})
	}
	for _, s := range f.serving.Selected() {
		req.ServingMethodID = append(req.ServingMethodID, apiclient.ServingLineInput{ServingMethod: s.Item.ID, Quantity: s.Quantity})
	}
	if len(req.Items) == 0 && len(req.ServingMethodID) == 0 {
		return entity.Order{}, invalid(ErrMissingInfo, "Please add at least one item to your cart")
	}

	f.mu.Lock()
	prev := f.order
	if f.pendingKey == "" {
		f.pendingKey = newIdempotencyKey()
	}
	key := f.pendingKey
	f.mu.Unlock()

	if prev.live() {
		f.compensate(ctx, prev)
		f.mu.Lock()
		f.order.Voided = true
		f.mu.Unlock()
	}

	o, err := f.remote.CreateOrder(ctx, mode, req, key)
	if err != nil {
		f.logger.Warn("create order failed", zap.String("idempotencyKey", key), zap.Error(err))
		return entity.Order{}, err
	}
	if err := f.session.SetLastCreatedOrder(ctx, o); err != nil {
		f.logger.Warn("persist last order failed", zap.String("orderId", o.ID), zap.Error(err))
	}
	f.mu.Lock()
	f.order = &OrderRef{ID: o.ID, Mode: mode}
	f.pendingKey = ""
	f.mu.Unlock()
	f.logger.Info("order created", zap.String("orderId", o.ID), zap.Int64("total", o.Total))
	return o, nil
}

// compensate cancels an order that will not get a receipt, under the mode
// it was created with. It reports whether the server accepted the
// cancellation; a failure leaves an orphaned order that is only logged.
func (f *Flow) compensate(ctx context.Context, ref *OrderRef) bool {
	orderID, mode := ref.ID, ref.Mode
	var err error
	if mode == "" {
		_, mode, err = f.session.Identity(ctx)
	}
	if err == nil {
		err = f.remote.CancelOrder(ctx, mode, orderID)
	}
	if err != nil && !apiclient.IsStatus(err, http.StatusNotFound) {
		f.logger.Error("order compensation failed, order orphaned",
			zap.String("orderId", orderID), zap.String("mode", string(mode)), zap.Error(err))
		return false
	}
	f.logger.Info("order cancelled", zap.String("orderId", orderID))
	return true
}

// ConfirmOrder creates the receipt for the referenced order. When the
// receipt cannot be created the order is cancelled and the flow returns to
// the summary; confirming again re-creates it.
func (f *Flow) ConfirmOrder(ctx context.Context) (entity.Receipt, error) {
	unlock, err := f.begin("confirm order", ReviewingOrderSummary)
	if err != nil {
		return entity.Receipt{}, err
	}
	defer unlock()

	userID, mode, err := f.session.Identity(ctx)
	if err != nil {
		return entity.Receipt{}, err
	}
	f.mu.RLock()
	ref, pickup, loc := f.order, f.pickup, f.locationID
	f.mu.RUnlock()
	if userID == "" || pickup == nil || loc == "" || ref == nil {
		return entity.Receipt{}, invalid(ErrMissingInfo, "Missing order information")
	}
	if mode == entity.SelfServing && len(f.serving.Selected()) == 0 {
		return entity.Receipt{}, invalid(ErrMissingInfo, "Please select at least one serving method")
	}

	f.setState(ConfirmingOrder)
	orderID := ref.ID
	if ref.Voided || ref.Stale || (ref.Mode != "" && ref.Mode != mode) {
		o, err := f.placeOrder(ctx)
		if err != nil {
			f.setState(ReviewingOrderSummary)
			return entity.Receipt{}, err
		}
		orderID = o.ID
	}

	r, err := f.remote.CreateReceipt(ctx, mode, apiclient.ReceiptRequest{
		OrderID:        orderID,
		OrderDate:      pickup.ID,
		PickupLocation: loc,
	})
	if err != nil {
		f.mu.RLock()
		cur := f.order
		f.mu.RUnlock()
		if f.compensate(ctx, cur) {
			f.mu.Lock()
			f.order.Voided = true
			f.mu.Unlock()
		}
		f.setState(ReviewingOrderSummary)
		return entity.Receipt{}, fmt.Errorf("create receipt: %w", err)
	}

	f.mu.Lock()
	f.order.Confirmed = true
	f.receipt = &r
	f.mu.Unlock()
	f.setState(ViewingReceipt)
	f.logger.Info("order confirmed", zap.String("orderId", orderID), zap.String("receiptId", r.ID))
	return r, nil
}
