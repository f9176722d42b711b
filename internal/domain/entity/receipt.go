package entity

// Receipt statuses reported by the remote API.
const (
	ReceiptUnpaid          = "unpaid"
	ReceiptPaid            = "paid"
	ReceiptPendingApproval = "pending_approval"
)

// ReceiptLine is a display row of a receipt section.
type ReceiptLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Amount   int64  `json:"amount"`
}

// Payment is the counter-payment evidence a devotee submits for an unpaid
// receipt.
type Payment struct {
	CashierName   string `json:"cashierName"`
	ReceiptNumber string `json:"receiptNumber"`
	PhotoURL      string `json:"photoUrl"`
}

// Receipt is the finalized, priced snapshot of an order.
type Receipt struct {
	ID                      string         `json:"id"`
	OrderID                 string         `json:"orderId"`
	Status                  string         `json:"status"`
	CreatedAt               string         `json:"createdAt,omitempty"`
	Pickup                  PickupDetails  `json:"pickup"`
	Location                PickupLocation `json:"location"`
	Items                   []ReceiptLine  `json:"items"`
	ServingMethods          []ReceiptLine  `json:"servingMethods"`
	TotalFoodItemsPrice     int64          `json:"totalFoodItemsPrice"`
	TotalServingMethodPrice int64          `json:"totalServingMethodPrice"`
	TotalAmount             int64          `json:"totalAmount"`
	Payment                 *Payment       `json:"payment,omitempty"`
}
