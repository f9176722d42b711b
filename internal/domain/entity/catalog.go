package entity

// PackagingMode selects how prasad is distributed. It doubles as the
// prasadType path segment on the remote API.
type PackagingMode string

const (
	PrePackaged PackagingMode = "pre-packaged"
	SelfServing PackagingMode = "self-serving"
)

// Valid reports whether m is one of the known packaging modes.
func (m PackagingMode) Valid() bool {
	return m == PrePackaged || m == SelfServing
}

// MenuItem is a catalog entry. Prices are in paise. Serving methods share the
// same shape.
type MenuItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Image       string   `json:"image,omitempty"`
	Category    string   `json:"category,omitempty"`
	IsVeg       bool     `json:"isVeg"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags,omitempty"`
}

// Section groups catalog items under a heading.
type Section struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// PickupLocation is a premvati where prasad is collected.
type PickupLocation struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}
