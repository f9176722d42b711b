package apiclient

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

// The remote API is inconsistent about identifiers (`_id` vs `id`, strings vs
// numbers) and about nesting. Everything below decodes the loose wire shapes
// and hands the rest of the module one canonical entity type per concept.

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if b[0] == '{' {
		// populated reference, e.g. {"_id": "..."}
		var ref wireID
		if err := json.Unmarshal(b, &ref); err != nil {
			return err
		}
		*s = flexString(ref.canonical())
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number, numeric string or null.
type flexInt int64

func (i *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*i = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		if v == "" {
			*i = 0
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*i = flexInt(math.Round(f))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*i = flexInt(math.Round(f))
	return nil
}

type wireID struct {
	MongoID flexString `json:"_id"`
	PlainID flexString `json:"id"`
}

func (w wireID) canonical() string {
	if w.MongoID != "" {
		return string(w.MongoID)
	}
	return string(w.PlainID)
}

type wireMenuItem struct {
	wireID
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       flexInt  `json:"price"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	IsVeg       bool     `json:"isVeg"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags"`
}

func (w wireMenuItem) toEntity() entity.MenuItem {
	return entity.MenuItem{
		ID:          w.canonical(),
		Name:        w.Name,
		Description: w.Description,
		Price:       int64(w.Price),
		Image:       w.Image,
		Category:    w.Category,
		IsVeg:       w.IsVeg,
		Rating:      w.Rating,
		Tags:        w.Tags,
	}
}

type wireSection struct {
	wireID
	Name  string         `json:"name"`
	Items []wireMenuItem `json:"items"`
}

// wireCatalog supports both the categories and the sections shape; a bare
// array of sections is handled by decodeSections.
type wireCatalog struct {
	Categories []wireSection `json:"categories"`
	Sections   []wireSection `json:"sections"`
}

func decodeSections(raw json.RawMessage) ([]entity.Section, error) {
	var secs []wireSection
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &secs); err != nil {
			return nil, err
		}
	} else if len(trimmed) > 0 {
		var cat wireCatalog
		if err := json.Unmarshal(trimmed, &cat); err != nil {
			return nil, err
		}
		secs = cat.Categories
		if len(secs) == 0 {
			secs = cat.Sections
		}
	}

	out := make([]entity.Section, 0, len(secs))
	for _, s := range secs {
		sec := entity.Section{ID: s.canonical(), Name: s.Name, Items: make([]entity.MenuItem, 0, len(s.Items))}
		if sec.ID == "" {
			sec.ID = s.Name
		}
		for _, it := range s.Items {
			item := it.toEntity()
			if item.ID == "" {
				continue
			}
			if item.Category == "" {
				item.Category = s.Name
			}
			sec.Items = append(sec.Items, item)
		}
		out = append(out, sec)
	}
	return out, nil
}

type wireLocation struct {
	wireID
	Name  string `json:"name"`
	Image string `json:"image"`
}

// UnmarshalJSON also accepts an unpopulated reference (a bare id).
func (w *wireLocation) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		var id flexString
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		w.PlainID = id
		return nil
	}
	type plain wireLocation
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*w = wireLocation(p)
	return nil
}

func (w wireLocation) toEntity() entity.PickupLocation {
	name := w.Name
	if name == "" {
		name = "Unnamed"
	}
	return entity.PickupLocation{ID: w.canonical(), Name: name, Image: w.Image}
}

type wirePickup struct {
	wireID
	PickupDate string `json:"pickupDate"`
	PickupTime string `json:"pickupTime"`
	EventName  string `json:"eventName"`
}

func (w *wirePickup) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		var id flexString
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		w.PlainID = id
		return nil
	}
	type plain wirePickup
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*w = wirePickup(p)
	return nil
}

func (w wirePickup) toEntity() entity.PickupDetails {
	return entity.PickupDetails{
		ID:         w.canonical(),
		PickupDate: w.PickupDate,
		PickupTime: w.PickupTime,
		EventName:  w.EventName,
	}
}

type wireLine struct {
	FoodItem      *wireMenuItem `json:"foodItem"`
	ServingMethod *wireMenuItem `json:"servingMethod"`
	Quantity      flexInt       `json:"quantity"`
	Price         flexInt       `json:"price"`
	TotalPrice    flexInt       `json:"totalPrice"`
}

func (w wireLine) item() wireMenuItem {
	if w.FoodItem != nil {
		return *w.FoodItem
	}
	if w.ServingMethod != nil {
		return *w.ServingMethod
	}
	return wireMenuItem{}
}

func (w wireLine) toOrderLine() entity.OrderLine {
	it := w.item()
	price := int64(it.Price)
	if price == 0 {
		price = int64(w.Price)
	}
	qty := int(w.Quantity)
	total := int64(w.TotalPrice)
	if total == 0 {
		total = price * int64(qty)
	}
	return entity.OrderLine{ID: it.canonical(), Name: it.Name, Image: it.Image, Price: price, Quantity: qty, LineTotal: total}
}

func (w wireLine) toReceiptLine(id, fallbackName string) entity.ReceiptLine {
	l := w.toOrderLine()
	name := l.Name
	if name == "" {
		name = fallbackName
	}
	return entity.ReceiptLine{ID: id, Name: name, Quantity: l.Quantity, Amount: l.LineTotal}
}

type wireCart struct {
	wireID
	Items []wireLine `json:"items"`
}

func (w wireCart) toEntity() entity.ServerCart {
	out := entity.ServerCart{ID: w.canonical(), Items: make([]entity.CartLine, 0, len(w.Items))}
	for _, l := range w.Items {
		it := l.item().toEntity()
		if it.ID == "" {
			continue
		}
		out.Items = append(out.Items, entity.CartLine{Item: it, Quantity: int(l.Quantity)})
	}
	return out
}

type wireOrder struct {
	wireID
	UserID          flexString    `json:"userId"`
	Items           []wireLine    `json:"items"`
	ServingMethodID []wireLine    `json:"servingMethodId"`
	Subtotal        flexInt       `json:"subtotal"`
	Tax             flexInt       `json:"tax"`
	DeliveryFee     flexInt       `json:"deliveryFee"`
	TotalAmount     flexInt       `json:"totalAmount"`
	Status          string        `json:"status"`
	CreatedAt       string        `json:"createdAt"`
	OrderDate       *wirePickup   `json:"orderDate"`
	PickupLocation  *wireLocation `json:"pickupLocation"`
}

func (w wireOrder) toEntity() entity.Order {
	o := entity.Order{
		ID:             w.canonical(),
		UserID:         string(w.UserID),
		Items:          make([]entity.OrderLine, 0, len(w.Items)),
		ServingMethods: make([]entity.OrderLine, 0, len(w.ServingMethodID)),
		Subtotal:       int64(w.Subtotal),
		Tax:            int64(w.Tax),
		DeliveryFee:    int64(w.DeliveryFee),
		Total:          int64(w.TotalAmount),
		Status:         w.Status,
		CreatedAt:      w.CreatedAt,
	}
	var sum int64
	for _, l := range w.Items {
		line := l.toOrderLine()
		sum += line.LineTotal
		o.Items = append(o.Items, line)
	}
	for _, l := range w.ServingMethodID {
		line := l.toOrderLine()
		sum += line.LineTotal
		o.ServingMethods = append(o.ServingMethods, line)
	}
	if o.Subtotal == 0 {
		o.Subtotal = sum
	}
	if o.Total == 0 {
		o.Total = o.Subtotal + o.Tax + o.DeliveryFee
	}
	return o
}

type wireReceipt struct {
	wireID
	Status                  string          `json:"status"`
	OrderID                 flexString      `json:"orderId"`
	OrderSummary            *wireOrder      `json:"orderSummary"`
	OrderDate               *wirePickup     `json:"orderDate"`
	PickupLocation          *wireLocation   `json:"pickupLocation"`
	TotalFoodItemsPrice     flexInt         `json:"totalFoodItemsPrice"`
	TotalServingMethodPrice flexInt         `json:"totalServingMethodPrice"`
	TotalAmount             flexInt         `json:"totalAmount"`
	Payment                 *entity.Payment `json:"payment"`
	CreatedAt               string          `json:"createdAt"`
}

func (w wireReceipt) toEntity() entity.Receipt {
	r := entity.Receipt{
		ID:                      w.canonical(),
		Status:                  w.Status,
		OrderID:                 string(w.OrderID),
		CreatedAt:               w.CreatedAt,
		TotalFoodItemsPrice:     int64(w.TotalFoodItemsPrice),
		TotalServingMethodPrice: int64(w.TotalServingMethodPrice),
		TotalAmount:             int64(w.TotalAmount),
		Payment:                 w.Payment,
		Items:                   []entity.ReceiptLine{},
		ServingMethods:          []entity.ReceiptLine{},
	}
	if r.Status == "" {
		r.Status = entity.ReceiptUnpaid
	}

	pickup, location := w.OrderDate, w.PickupLocation
	if s := w.OrderSummary; s != nil {
		if r.OrderID == "" {
			r.OrderID = s.canonical()
		}
		if r.CreatedAt == "" {
			r.CreatedAt = s.CreatedAt
		}
		if pickup == nil {
			pickup = s.OrderDate
		}
		if location == nil {
			location = s.PickupLocation
		}
		var food, serving int64
		for i, l := range s.Items {
			line := l.toReceiptLine(strconv.Itoa(i), "Unknown Item")
			food += line.Amount
			r.Items = append(r.Items, line)
		}
		for i, l := range s.ServingMethodID {
			line := l.toReceiptLine("s-"+strconv.Itoa(i), "Serving")
			serving += line.Amount
			r.ServingMethods = append(r.ServingMethods, line)
		}
		if r.TotalFoodItemsPrice == 0 {
			r.TotalFoodItemsPrice = food
		}
		if r.TotalServingMethodPrice == 0 {
			r.TotalServingMethodPrice = serving
		}
		if r.TotalAmount == 0 {
			r.TotalAmount = int64(s.TotalAmount)
		}
	}
	if pickup != nil {
		r.Pickup = pickup.toEntity()
	}
	if location != nil {
		r.Location = location.toEntity()
	}
	return r
}

type wireLogin struct {
	Token  string     `json:"token"`
	UserID flexString `json:"userId"`
	User   *wireID    `json:"user"`
}
