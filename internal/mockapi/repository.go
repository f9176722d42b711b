package mockapi

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownItem    = errors.New("unknown catalog item")
	ErrForbidden      = errors.New("resource belongs to another devotee")
	ErrOrderCancelled = errors.New("order is cancelled")
	ErrReceiptExists  = errors.New("receipt already exists for order")
	ErrAlreadyPaid    = errors.New("receipt is not awaiting payment")
	ErrEmptyOrder     = errors.New("order has no items")
)

const (
	orderPending   = "pending"
	orderCancelled = "cancelled"

	receiptUnpaid          = "unpaid"
	receiptPaid            = "paid"
	receiptPendingApproval = "pending_approval"
)

type line struct {
	Item     SeedItem
	Quantity int
}

type pickupSlot struct {
	ID        string
	UserID    string
	Date      string
	Time      string
	EventName string
}

type order struct {
	ID          string
	UserID      string
	Mode        string
	Items       []line
	Serving     []line
	Subtotal    int64
	Tax         int64
	DeliveryFee int64
	Total       int64
	Status      string
	CreatedAt   time.Time
}

type payment struct {
	CashierName   string
	ReceiptNumber string
	PhotoURL      string
}

type receipt struct {
	ID         string
	OrderID    string
	UserID     string
	Mode       string
	Status     string
	PickupID   string
	LocationID string
	Payment    *payment
	CreatedAt  time.Time
}

// Pricing is applied to every created order.
type Pricing struct {
	TaxPercent  int64
	DeliveryFee int64
}

// Repository holds every piece of upstream state in memory.
type Repository struct {
	mu sync.RWMutex

	pricing   Pricing
	items     map[string]SeedItem
	locations map[string]SeedLocation

	carts    map[string]map[string]int
	cartIDs  map[string]string
	slots    map[string]pickupSlot
	orders   map[string]*order
	receipts map[string]*receipt
	byOrder  map[string]string
	idem     map[string]string
	now      func() time.Time
}

func NewRepository(seed Seed, pricing Pricing) *Repository {
	r := &Repository{
		pricing:   pricing,
		items:     make(map[string]SeedItem),
		locations: make(map[string]SeedLocation),
		carts:     make(map[string]map[string]int),
		cartIDs:   make(map[string]string),
		slots:     make(map[string]pickupSlot),
		orders:    make(map[string]*order),
		receipts:  make(map[string]*receipt),
		byOrder:   make(map[string]string),
		idem:      make(map[string]string),
		now:       time.Now,
	}
	for _, cat := range seed.Catalog {
		for _, secs := range [][]SeedSection{cat.Menu, cat.ServingMethods} {
			for _, sec := range secs {
				for _, it := range sec.Items {
					r.items[it.ID] = it
				}
			}
		}
	}
	for _, l := range seed.Premvati {
		r.locations[l.ID] = l
	}
	return r
}

func cartKey(mode, userID string) string {
	return mode + "/" + userID
}

// ReplaceCart sets the devotee's cart to exactly the given quantities.
// Entries with quantity <= 0 are dropped.
func (r *Repository) ReplaceCart(mode, userID string, qty map[string]int) (string, []line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range qty {
		if _, ok := r.items[id]; !ok {
			return "", nil, ErrUnknownItem
		}
	}
	key := cartKey(mode, userID)
	cart := make(map[string]int, len(qty))
	for id, q := range qty {
		if q > 0 {
			cart[id] = q
		}
	}
	r.carts[key] = cart
	id, ok := r.cartIDs[key]
	if !ok {
		id = uuid.NewString()
		r.cartIDs[key] = id
	}
	return id, r.linesLocked(cart), nil
}

// Cart returns the devotee's cart, creating an empty one when absent.
func (r *Repository) Cart(mode, userID string) (string, []line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := cartKey(mode, userID)
	id, ok := r.cartIDs[key]
	if !ok {
		id = uuid.NewString()
		r.cartIDs[key] = id
	}
	return id, r.linesLocked(r.carts[key])
}

func (r *Repository) linesLocked(qty map[string]int) []line {
	out := make([]line, 0, len(qty))
	for id, q := range qty {
		out = append(out, line{Item: r.items[id], Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ID < out[j].Item.ID })
	return out
}

func (r *Repository) SaveSlot(userID, date, tm, event string) pickupSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := pickupSlot{ID: uuid.NewString(), UserID: userID, Date: date, Time: tm, EventName: event}
	r.slots[s.ID] = s
	return s
}

// CreateOrder prices and stores an order. A repeated idempotency key returns
// the order created the first time with replayed set.
func (r *Repository) CreateOrder(mode, userID, idemKey string, items, serving map[string]int) (order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idemKey != "" {
		if id, ok := r.idem[idemKey]; ok {
			return *r.orders[id], true, nil
		}
	}
	if len(items) == 0 {
		items = r.carts[cartKey(mode, userID)]
	}
	if len(items) == 0 && len(serving) == 0 {
		return order{}, false, ErrEmptyOrder
	}
	for _, set := range []map[string]int{items, serving} {
		for id := range set {
			if _, ok := r.items[id]; !ok {
				return order{}, false, ErrUnknownItem
			}
		}
	}

	o := &order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      mode,
		Items:     r.linesLocked(positive(items)),
		Serving:   r.linesLocked(positive(serving)),
		Status:    orderPending,
		CreatedAt: r.now().UTC(),
	}
	for _, ls := range [][]line{o.Items, o.Serving} {
		for _, l := range ls {
			o.Subtotal += l.Item.Price * int64(l.Quantity)
		}
	}
	o.Tax = (o.Subtotal*r.pricing.TaxPercent + 50) / 100
	o.DeliveryFee = r.pricing.DeliveryFee
	o.Total = o.Subtotal + o.Tax + o.DeliveryFee

	r.orders[o.ID] = o
	if idemKey != "" {
		r.idem[idemKey] = o.ID
	}
	return *o, false, nil
}

func positive(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// CancelOrder marks an order cancelled. Cancelling twice is not an error.
func (r *Repository) CancelOrder(id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.UserID != userID {
		return ErrForbidden
	}
	o.Status = orderCancelled
	return nil
}

func (r *Repository) Order(id string) (order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return order{}, ErrNotFound
	}
	return *o, nil
}

func (r *Repository) CreateReceipt(userID, orderID, slotID, locationID string) (receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return receipt{}, ErrNotFound
	}
	if o.UserID != userID {
		return receipt{}, ErrForbidden
	}
	if o.Status == orderCancelled {
		return receipt{}, ErrOrderCancelled
	}
	if _, ok := r.byOrder[orderID]; ok {
		return receipt{}, ErrReceiptExists
	}
	if _, ok := r.slots[slotID]; !ok {
		return receipt{}, ErrNotFound
	}
	if _, ok := r.locations[locationID]; !ok {
		return receipt{}, ErrNotFound
	}
	rc := &receipt{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		UserID:     userID,
		Mode:       o.Mode,
		Status:     receiptUnpaid,
		PickupID:   slotID,
		LocationID: locationID,
		CreatedAt:  r.now().UTC(),
	}
	r.receipts[rc.ID] = rc
	r.byOrder[orderID] = rc.ID
	return *rc, nil
}

func (r *Repository) ReceiptByOrder(orderID string) (receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return receipt{}, ErrNotFound
	}
	return *r.receipts[id], nil
}

// Receipts lists a devotee's receipts for mode. The unpaid listing includes
// receipts whose payment is pending approval.
func (r *Repository) Receipts(mode, userID, status string) []receipt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]receipt, 0)
	for _, rc := range r.receipts {
		if rc.UserID != userID || rc.Mode != mode {
			continue
		}
		paid := rc.Status == receiptPaid
		if (status == receiptPaid) != paid {
			continue
		}
		out = append(out, *rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Repository) SubmitPayment(receiptID, userID string, p payment) (receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.receipts[receiptID]
	if !ok {
		return receipt{}, ErrNotFound
	}
	if rc.UserID != userID {
		return receipt{}, ErrForbidden
	}
	if rc.Status != receiptUnpaid {
		return receipt{}, ErrAlreadyPaid
	}
	rc.Payment = &p
	rc.Status = receiptPendingApproval
	return *rc, nil
}

// ApprovePayment marks a receipt paid; the cashier desk does this upstream.
func (r *Repository) ApprovePayment(receiptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.receipts[receiptID]
	if !ok {
		return ErrNotFound
	}
	rc.Status = receiptPaid
	return nil
}

func (r *Repository) Slot(id string) (pickupSlot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	return s, ok
}

func (r *Repository) Location(id string) (SeedLocation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	return l, ok
}
