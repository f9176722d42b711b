// Package order drives the order composition flow, from choosing a packaging
// mode to paying for the receipt.
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/cart"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/receipt"
	"github.com/wichananm65/prasad-ordering/internal/serving"
	"github.com/wichananm65/prasad-ordering/internal/session"
	"github.com/wichananm65/prasad-ordering/internal/tasks"
)

// Remote is the slice of the remote API the flow calls. *apiclient.Client
// satisfies it.
type Remote interface {
	GetCart(ctx context.Context, mode entity.PackagingMode, userID string) (entity.ServerCart, error)
	SavePickupDate(ctx context.Context, mode entity.PackagingMode, req apiclient.PickupRequest) (entity.PickupDetails, error)
	CreateOrder(ctx context.Context, mode entity.PackagingMode, req apiclient.CreateOrderRequest, idempotencyKey string) (entity.Order, error)
	CancelOrder(ctx context.Context, mode entity.PackagingMode, orderID string) error
	CreateReceipt(ctx context.Context, mode entity.PackagingMode, req apiclient.ReceiptRequest) (entity.Receipt, error)
	GetReceipt(ctx context.Context, mode entity.PackagingMode, orderID string) (entity.Receipt, error)
	SubmitPayment(ctx context.Context, mode entity.PackagingMode, receiptID string, p entity.Payment) (entity.Receipt, error)
}

// Catalog resolves serving methods and pickup locations by id.
type Catalog interface {
	Lookup(id string) (entity.MenuItem, error)
	Location(ctx context.Context, id string) (entity.PickupLocation, error)
}

type Options struct {
	Pricing Pricing
	// PickupLeadDays is the minimum days ahead on the pickup step. The
	// summary edit allows today.
	PickupLeadDays int
	Now            func() time.Time
	Logger         *zap.Logger
}

// OrderRef is the locally referenced server order.
type OrderRef struct {
	ID string `json:"id"`
	// Mode is the prasad type the order was created under; cancelling
	// goes through the same path.
	Mode entity.PackagingMode `json:"mode"`
	// Voided orders were cancelled by compensation and are re-created on
	// the next confirm.
	Voided bool `json:"voided"`
	// Stale orders no longer match the summary and are replaced on confirm.
	Stale bool `json:"stale"`
	// Confirmed orders have a receipt and are never cancelled.
	Confirmed bool `json:"confirmed"`
}

// live reports whether the order still needs cancelling when abandoned.
func (o *OrderRef) live() bool {
	return o != nil && !o.Voided && !o.Confirmed
}

// Snapshot is a read-only view of the flow.
type Snapshot struct {
	State      State                 `json:"state"`
	Mode       entity.PackagingMode  `json:"mode,omitempty"`
	Order      *OrderRef             `json:"order,omitempty"`
	Pickup     *entity.PickupDetails `json:"pickup,omitempty"`
	LocationID string                `json:"locationId,omitempty"`
	Receipt    *entity.Receipt       `json:"receipt,omitempty"`
	CanGoBack  bool                  `json:"canGoBack"`
}

// Flow is safe for concurrent use. Transitions are serialized; one started
// while another is running fails with ErrBusy.
type Flow struct {
	remote  Remote
	catalog Catalog
	session *session.Session
	cart    *cart.Service
	serving *serving.State
	keyed   *tasks.Keyed
	opts    Options
	logger  *zap.Logger

	run sync.Mutex

	mu         sync.RWMutex
	state      State
	mode       entity.PackagingMode
	order      *OrderRef
	pickup     *entity.PickupDetails
	locationID string
	receipt    *entity.Receipt
	// pendingKey is reused when an order attempt is retried.
	pendingKey string
}

func NewFlow(remote Remote, cat Catalog, sess *session.Session, carts *cart.Service, sv *serving.State, opts Options) *Flow {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Flow{
		remote:  remote,
		catalog: cat,
		session: sess,
		cart:    carts,
		serving: sv,
		keyed:   tasks.NewKeyed(),
		opts:    opts,
		logger:  opts.Logger,
		state:   SelectingPackagingMode,
	}
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snap := Snapshot{State: f.state, Mode: f.mode, LocationID: f.locationID}
	if f.order != nil {
		o := *f.order
		snap.Order = &o
	}
	if f.pickup != nil {
		p := *f.pickup
		snap.Pickup = &p
	}
	if f.receipt != nil {
		r := *f.receipt
		snap.Receipt = &r
	}
	_, snap.CanGoBack = previous(f.state, f.mode)
	return snap
}

func (f *Flow) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// begin claims the transition slot and checks the current state.
func (f *Flow) begin(action string, allowed ...State) (func(), error) {
	if !f.run.TryLock() {
		return nil, ErrBusy
	}
	cur := f.State()
	for _, s := range allowed {
		if s == cur {
			return f.run.Unlock, nil
		}
	}
	f.run.Unlock()
	return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, cur)
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	prev := f.state
	f.state = s
	f.mu.Unlock()
	if prev != s {
		f.logger.Debug("flow transition", zap.String("from", string(prev)), zap.String("to", string(s)))
	}
}

// Resume restores the flow from the device session, e.g. after a restart.
func (f *Flow) Resume(ctx context.Context) error {
	unlock, err := f.begin("resume", SelectingPackagingMode)
	if err != nil {
		return err
	}
	defer unlock()

	mode, err := f.session.PrasadType(ctx)
	if err != nil {
		return err
	}
	f.serving.Load(ctx)
	loc, err := f.session.SelectedLocation(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.locationID = loc
	if p, ok := f.session.PickupDetails(ctx); ok {
		f.pickup = &p
	}
	last, hasOrder := f.session.LastCreatedOrder(ctx)
	if hasOrder {
		f.order = &OrderRef{ID: last.ID, Mode: mode}
	}
	f.mu.Unlock()

	if !mode.Valid() {
		return nil
	}
	if hasOrder {
		// a receipt means the order went through before the restart
		if r, err := f.remote.GetReceipt(ctx, mode, last.ID); err == nil {
			f.mu.Lock()
			f.order.Confirmed = true
			f.receipt = &r
			f.mu.Unlock()
		}
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	if _, err := f.cart.Pull(ctx); err != nil {
		// an empty catalog screen is still usable
		f.logger.Warn("resume cart failed", zap.Error(err))
	}
	f.setState(BrowsingCatalog)
	return nil
}

// SelectPackagingMode stores the mode. Switching modes empties the cart since
// menu items differ between them.
func (f *Flow) SelectPackagingMode(ctx context.Context, mode entity.PackagingMode) error {
	unlock, err := f.begin("select packaging mode", SelectingPackagingMode)
	if err != nil {
		return err
	}
	defer unlock()

	if !mode.Valid() {
		return invalid(session.ErrInvalidMode, "Please select a prasad type")
	}
	prev, err := f.session.PrasadType(ctx)
	if err != nil {
		return err
	}
	if err := f.session.SetPrasadType(ctx, mode); err != nil {
		return err
	}
	if prev != "" && prev != mode {
		f.mu.RLock()
		ref := f.order
		f.mu.RUnlock()
		if ref.live() && f.compensate(ctx, ref) {
			f.mu.Lock()
			f.order.Voided = true
			f.mu.Unlock()
		}
		f.cart.Store().ClearCart()
		f.serving.Reset()
		if err := f.serving.Persist(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	f.setState(BrowsingCatalog)
	return nil
}

// ContinueFromCatalog syncs the cart and moves to serving methods or, for
// pre-packaged prasad, straight to the pickup location.
func (f *Flow) ContinueFromCatalog(ctx context.Context) (State, error) {
	unlock, err := f.begin("continue from catalog", BrowsingCatalog)
	if err != nil {
		return "", err
	}
	defer unlock()

	if _, err := f.cart.Sync(ctx); err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			return "", invalid(err, "Please add at least one item to your cart")
		}
		return "", err
	}
	next := SelectingPickupLocation
	if f.mode == entity.SelfServing {
		next = SelectingServingMethod
	}
	f.setState(next)
	return next, nil
}

func (f *Flow) ContinueFromServing(ctx context.Context) error {
	unlock, err := f.begin("continue from serving", SelectingServingMethod)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := f.serving.Continue(ctx); err != nil {
		if errors.Is(err, serving.ErrEmptySelection) {
			return invalid(err, "Please select at least one serving method")
		}
		return err
	}
	f.setState(SelectingPickupLocation)
	return nil
}

func (f *Flow) SelectPickupLocation(ctx context.Context, id string) error {
	unlock, err := f.begin("select pickup location", SelectingPickupLocation)
	if err != nil {
		return err
	}
	defer unlock()

	if id == "" {
		return invalid(ErrMissingLocation, "Please select a pickup location")
	}
	if _, err := f.catalog.Location(ctx, id); err != nil {
		f.logger.Debug("pickup location rejected", zap.String("locationId", id), zap.Error(err))
		return invalid(ErrMissingLocation, "Please select a pickup location")
	}
	if err := f.session.SetSelectedLocation(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	f.locationID = id
	f.mu.Unlock()
	f.setState(SelectingPickupDateTime)
	return nil
}

// SchedulePickup saves the pickup slot. On the date/time screen it also
// creates the order and moves to the summary; on the summary it only edits
// the slot.
func (f *Flow) SchedulePickup(ctx context.Context, date, clock, event string) (entity.PickupDetails, error) {
	unlock, err := f.begin("schedule pickup", SelectingPickupDateTime, ReviewingOrderSummary)
	if err != nil {
		return entity.PickupDetails{}, err
	}
	defer unlock()

	onSummary := f.State() == ReviewingOrderSummary
	lead := f.opts.PickupLeadDays
	if onSummary {
		lead = 0
	}
	slot, err := ParsePickup(f.opts.Now(), lead, date, clock, event)
	if err != nil {
		return entity.PickupDetails{}, err
	}
	_, mode, err := f.session.Identity(ctx)
	if err != nil {
		return entity.PickupDetails{}, err
	}

	details, err := f.remote.SavePickupDate(ctx, mode, apiclient.PickupRequest{
		PickupDate: slot.Date,
		PickupTime: slot.Time,
		EventName:  slot.EventName,
	})
	if err != nil {
		return entity.PickupDetails{}, err
	}
	if details.PickupDate == "" {
		details.PickupDate, details.PickupTime, details.EventName = slot.Date, slot.Time, slot.EventName
	}
	if err := f.session.SetPickupDetails(ctx, details); err != nil {
		return entity.PickupDetails{}, err
	}
	f.mu.Lock()
	f.pickup = &details
	f.mu.Unlock()

	if onSummary {
		return details, nil
	}
	if _, err := f.placeOrder(ctx); err != nil {
		return details, err
	}
	f.setState(ReviewingOrderSummary)
	return details, nil
}

// Summary prices what will be ordered.
func (f *Flow) Summary(ctx context.Context) (Summary, error) {
	switch f.State() {
	case ReviewingOrderSummary, ConfirmingOrder, ViewingReceipt, AwaitingPayment, Done:
	default:
		return Summary{}, fmt.Errorf("%w: summary from %s", ErrInvalidTransition, f.State())
	}
	userID, mode, err := f.session.Identity(ctx)
	if err != nil {
		return Summary{}, err
	}
	sc, err := f.remote.GetCart(ctx, mode, userID)
	if err != nil {
		return Summary{}, err
	}
	s := BuildSummary(sc, f.serving.Selected(), f.opts.Pricing)

	f.mu.RLock()
	if f.pickup != nil {
		p := *f.pickup
		s.Pickup = &p
	}
	s.LocationID = f.locationID
	if f.order != nil && !f.order.Voided {
		s.OrderID = f.order.ID
	}
	f.mu.RUnlock()
	return s, nil
}

// CartEditable locks the cart once it has been synced on leaving the
// catalog. Going back to the catalog unlocks it.
func (f *Flow) CartEditable() error {
	switch s := f.State(); s {
	case SelectingPackagingMode, BrowsingCatalog:
		return nil
	default:
		return fmt.Errorf("%w on %s", cart.ErrLocked, s)
	}
}

// ServingEditable allows direct selection changes on the serving screen
// only; the summary adjusts through AdjustServing.
func (f *Flow) ServingEditable() error {
	if s := f.State(); s != SelectingServingMethod {
		return fmt.Errorf("%w on %s", serving.ErrLocked, s)
	}
	return nil
}

// AdjustServing changes a serving quantity from the summary. A newer
// adjustment of the same item supersedes one still persisting.
func (f *Flow) AdjustServing(ctx context.Context, id string, delta int) (int, error) {
	if f.State() != ReviewingOrderSummary {
		return 0, fmt.Errorf("%w: adjust serving from %s", ErrInvalidTransition, f.State())
	}
	item, err := f.catalog.Lookup(id)
	if err != nil {
		return 0, err
	}
	before := f.serving.Quantity(id)
	qty := f.serving.Adjust(item, delta)
	if qty != before {
		f.mu.Lock()
		if f.order != nil {
			f.order.Stale = true
		}
		f.mu.Unlock()
	}

	return tasks.Run(f.keyed, ctx, tasks.Key{Screen: "summary", Resource: id}, func(ctx context.Context) (int, error) {
		if err := f.serving.Persist(ctx); err != nil {
			return 0, err
		}
		return qty, nil
	})
}

// Back returns to the previous screen without contacting the server.
func (f *Flow) Back() (State, error) {
	if !f.run.TryLock() {
		return "", ErrBusy
	}
	defer f.run.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := previous(f.state, f.mode)
	if !ok {
		return "", fmt.Errorf("%w: back from %s", ErrInvalidTransition, f.state)
	}
	f.state = prev
	return prev, nil
}

// LoadReceipt refreshes the receipt of the confirmed order and moves to
// payment when it is unpaid.
func (f *Flow) LoadReceipt(ctx context.Context) (entity.Receipt, error) {
	unlock, err := f.begin("load receipt", ViewingReceipt, AwaitingPayment, Done)
	if err != nil {
		return entity.Receipt{}, err
	}
	defer unlock()

	_, mode, err := f.session.Identity(ctx)
	if err != nil {
		return entity.Receipt{}, err
	}
	f.mu.RLock()
	ref := f.order
	f.mu.RUnlock()
	if ref == nil {
		return entity.Receipt{}, invalid(ErrMissingInfo, "Missing order information")
	}
	r, err := f.remote.GetReceipt(ctx, mode, ref.ID)
	if err != nil {
		return entity.Receipt{}, err
	}
	f.mu.Lock()
	f.receipt = &r
	f.mu.Unlock()
	if r.Status == entity.ReceiptUnpaid {
		f.setState(AwaitingPayment)
	} else {
		f.setState(Done)
	}
	return r, nil
}

// SubmitPayment sends counter-payment evidence for the unpaid receipt.
func (f *Flow) SubmitPayment(ctx context.Context, p entity.Payment) (entity.Receipt, error) {
	unlock, err := f.begin("submit payment", AwaitingPayment)
	if err != nil {
		return entity.Receipt{}, err
	}
	defer unlock()

	if err := receipt.ValidatePayment(p); err != nil {
		return entity.Receipt{}, invalid(err, err.Error())
	}
	_, mode, err := f.session.Identity(ctx)
	if err != nil {
		return entity.Receipt{}, err
	}
	f.mu.RLock()
	cur := f.receipt
	f.mu.RUnlock()
	if cur == nil || cur.ID == "" {
		return entity.Receipt{}, invalid(ErrMissingInfo, "Missing receipt information")
	}
	r, err := f.remote.SubmitPayment(ctx, mode, cur.ID, p)
	if err != nil {
		return entity.Receipt{}, err
	}
	f.mu.Lock()
	f.receipt = &r
	f.mu.Unlock()
	f.setState(Done)
	f.logger.Info("payment submitted", zap.String("receiptId", r.ID), zap.String("status", r.Status))
	return r, nil
}

// Reset abandons the current order and starts over. An order that never got
// a receipt is cancelled on the server.
func (f *Flow) Reset(ctx context.Context) error {
	if !f.run.TryLock() {
		return ErrBusy
	}
	defer f.run.Unlock()

	f.mu.RLock()
	ref := f.order
	f.mu.RUnlock()
	if ref.live() {
		f.compensate(ctx, ref)
	}

	f.cart.Store().ClearCart()
	f.serving.Reset()
	if err := f.session.ClearOrderProgress(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	f.order, f.pickup, f.receipt = nil, nil, nil
	f.locationID, f.pendingKey = "", ""
	f.mu.Unlock()
	f.setState(SelectingPackagingMode)
	return nil
}

func newIdempotencyKey() string {
	return uuid.NewString()
}
