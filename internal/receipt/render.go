package receipt

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/wichananm65/prasad-ordering/internal/catalog"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

const (
	DefaultWidth = 40
	minWidth     = 28

	qtyWidth    = 5
	amountWidth = 12
)

// Text renders r as a fixed-width plain text receipt. Columns are measured
// in terminal cells so Gujarati and CJK item names stay aligned.
func Text(r entity.Receipt, width int) string {
	if width < minWidth {
		width = minWidth
	}
	var b strings.Builder
	rule := strings.Repeat("-", width)

	b.WriteString(center("Prasad Pickup Receipt", width))
	b.WriteByte('\n')
	field(&b, width, "Order", r.OrderID)
	field(&b, width, "Pickup", strings.TrimSpace(r.Pickup.PickupDate+" "+r.Pickup.PickupTime))
	if ev, ok := entity.EventNames[r.Pickup.EventName]; ok {
		field(&b, width, "Event", ev)
	}
	field(&b, width, "Location", r.Location.Name)
	field(&b, width, "Status", strings.ToUpper(strings.ReplaceAll(r.Status, "_", " ")))
	b.WriteString(rule + "\n")

	section(&b, width, "Items", r.Items)
	section(&b, width, "Serving methods", r.ServingMethods)
	b.WriteString(rule + "\n")

	total(&b, width, "Food", r.TotalFoodItemsPrice)
	if len(r.ServingMethods) > 0 {
		total(&b, width, "Serving", r.TotalServingMethodPrice)
	}
	total(&b, width, "Total", r.TotalAmount)
	if r.Payment != nil {
		b.WriteString(rule + "\n")
		field(&b, width, "Cashier", r.Payment.CashierName)
		field(&b, width, "Paid ref", r.Payment.ReceiptNumber)
	}
	return b.String()
}

func center(s string, width int) string {
	s = runewidth.Truncate(s, width, "…")
	pad := (width - runewidth.StringWidth(s)) / 2
	return runewidth.FillRight(strings.Repeat(" ", pad)+s, width)
}

func field(b *strings.Builder, width int, label, value string) {
	if value == "" {
		value = "-"
	}
	head := runewidth.FillRight(label, 9) + ": "
	line := head + runewidth.Truncate(value, width-runewidth.StringWidth(head), "…")
	b.WriteString(runewidth.FillRight(line, width) + "\n")
}

func section(b *strings.Builder, width int, title string, lines []entity.ReceiptLine) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(runewidth.FillRight(title, width) + "\n")
	nameWidth := width - qtyWidth - amountWidth
	for _, l := range lines {
		name := runewidth.FillRight(runewidth.Truncate(l.Name, nameWidth, "…"), nameWidth)
		qty := runewidth.FillLeft("x"+strconv.Itoa(l.Quantity), qtyWidth)
		amount := runewidth.FillLeft(catalog.FormatINR(l.Amount), amountWidth)
		b.WriteString(name + qty + amount + "\n")
	}
}

func total(b *strings.Builder, width int, label string, paise int64) {
	amount := catalog.FormatINR(paise)
	b.WriteString(runewidth.FillRight(label, width-runewidth.StringWidth(amount)) + amount + "\n")
}
