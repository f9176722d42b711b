package entity

// PickupDetails is the server-acknowledged pickup slot. ID is the reference
// forwarded as orderDate when a receipt is created.
type PickupDetails struct {
	ID         string `json:"id,omitempty"`
	PickupDate string `json:"pickupDate"`
	PickupTime string `json:"pickupTime"`
	EventName  string `json:"eventName,omitempty"`
}

// OrderLine is a priced line of a server order or summary.
type OrderLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"lineTotal"`
}

// Order is owned by the server and referenced locally by ID.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	Items          []OrderLine `json:"items"`
	ServingMethods []OrderLine `json:"servingMethods"`
	Subtotal       int64       `json:"subtotal"`
	Tax            int64       `json:"tax"`
	DeliveryFee    int64       `json:"deliveryFee"`
	Total          int64       `json:"total"`
	Status         string      `json:"status,omitempty"`
	CreatedAt      string      `json:"createdAt,omitempty"`
}

// CartLine is one entry of the server-side cart.
type CartLine struct {
	Item     MenuItem `json:"foodItem"`
	Quantity int      `json:"quantity"`
}

// ServerCart mirrors the cart persisted by the remote API.
type ServerCart struct {
	ID    string     `json:"id"`
	Items []CartLine `json:"items"`
}

// EventNames are the sabha events a pickup can be booked for, keyed by the
// value sent to the API.
var EventNames = map[string]string{
	"parasabha":    "Parasabha",
	"parayan":      "Parayan",
	"utsav":        "Utsav",
	"visheshsabha": "Vishesh Sabha",
}
