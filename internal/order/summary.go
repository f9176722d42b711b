package order

import (
	"github.com/shopspring/decimal"

	"github.com/wichananm65/prasad-ordering/internal/catalog"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/serving"
)

// Pricing mirrors the bill shown before confirmation. The server remains the
// authority on the final amount.
type Pricing struct {
	TaxPercent  int64
	DeliveryFee int64
}

// Tax rounds half up to the nearest paisa.
func (p Pricing) Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(p.TaxPercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

type SummaryLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"lineTotal"`
	Display   string `json:"display"`
}

type Summary struct {
	Items          []SummaryLine         `json:"items"`
	ServingMethods []SummaryLine         `json:"servingMethods"`
	TotalItems     int                   `json:"totalItems"`
	FoodTotal      int64                 `json:"foodTotal"`
	ServingTotal   int64                 `json:"servingTotal"`
	Subtotal       int64                 `json:"subtotal"`
	Tax            int64                 `json:"tax"`
	DeliveryFee    int64                 `json:"deliveryFee"`
	GrandTotal     int64                 `json:"grandTotal"`
	GrandTotalText string                `json:"grandTotalText"`
	Pickup         *entity.PickupDetails `json:"pickup,omitempty"`
	LocationID     string                `json:"locationId,omitempty"`
	OrderID        string                `json:"orderId,omitempty"`
}

func newLine(id, name string, price int64, qty int) SummaryLine {
	total := price * int64(qty)
	return SummaryLine{ID: id, Name: name, Price: price, Quantity: qty, LineTotal: total, Display: catalog.FormatINR(total)}
}

// BuildSummary prices the server cart and the serving selection.
func BuildSummary(cart entity.ServerCart, sel []serving.Selection, p Pricing) Summary {
	s := Summary{
		Items:          make([]SummaryLine, 0, len(cart.Items)),
		ServingMethods: make([]SummaryLine, 0, len(sel)),
	}
	for _, l := range cart.Items {
		if l.Quantity <= 0 {
			continue
		}
		line := newLine(l.Item.ID, l.Item.Name, l.Item.Price, l.Quantity)
		s.Items = append(s.Items, line)
		s.FoodTotal += line.LineTotal
		s.TotalItems += l.Quantity
	}
	for _, it := range sel {
		line := newLine(it.Item.ID, it.Item.Name, it.Item.Price, it.Quantity)
		s.ServingMethods = append(s.ServingMethods, line)
		s.ServingTotal += line.LineTotal
		s.TotalItems += it.Quantity
	}
	s.Subtotal = s.FoodTotal + s.ServingTotal
	s.Tax = p.Tax(s.Subtotal)
	s.DeliveryFee = p.DeliveryFee
	s.GrandTotal = s.Subtotal + s.Tax + s.DeliveryFee
	s.GrandTotalText = catalog.FormatINR(s.GrandTotal)
	return s
}
