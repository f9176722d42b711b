package catalog

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

const maxStars = 5

// FormatINR renders an amount in paise as rupees, e.g. 10050 -> "₹100.50".
func FormatINR(paise int64) string {
	return "₹" + decimal.New(paise, -2).StringFixed(2)
}

// Star is one glyph of a rating row.
type Star string

const (
	StarFull  Star = "full"
	StarHalf  Star = "half"
	StarEmpty Star = "empty"
)

// Stars expands a 0..5 rating into full, half and empty glyphs. Any
// fractional part shows as a half star.
func Stars(rating float64) []Star {
	rating = math.Max(0, math.Min(rating, maxStars))
	full := int(math.Floor(rating))
	half := rating-float64(full) > 0
	out := make([]Star, 0, maxStars)
	for i := 0; i < full; i++ {
		out = append(out, StarFull)
	}
	if half {
		out = append(out, StarHalf)
	}
	for len(out) < maxStars {
		out = append(out, StarEmpty)
	}
	return out
}

// TagVariant selects tag styling.
type TagVariant string

const (
	TagDefault TagVariant = "default"
	TagPrimary TagVariant = "primary"
	TagSuccess TagVariant = "success"
)

type Tag struct {
	Text    string     `json:"text"`
	Variant TagVariant `json:"variant"`
}

// Card is the view model of a menu item or serving method tile.
type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Price       string `json:"price"`
	PricePaise  int64  `json:"pricePaise"`
	Stars       []Star `json:"stars"`
	Tags        []Tag  `json:"tags"`
	Quantity    int    `json:"quantity"`
}

func NewCard(it entity.MenuItem, qty int) Card {
	tags := make([]Tag, 0, len(it.Tags)+1)
	if it.IsVeg {
		tags = append(tags, Tag{Text: "Veg", Variant: TagSuccess})
	}
	for _, t := range it.Tags {
		tags = append(tags, Tag{Text: t, Variant: TagDefault})
	}
	return Card{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Image:       it.Image,
		Price:       FormatINR(it.Price),
		PricePaise:  it.Price,
		Stars:       Stars(it.Rating),
		Tags:        tags,
		Quantity:    qty,
	}
}

// SectionView is a headed list of cards.
type SectionView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// NewSectionViews renders sections with the quantity currently selected for
// each item.
func NewSectionViews(secs []entity.Section, quantity func(id string) int) []SectionView {
	out := make([]SectionView, 0, len(secs))
	for _, sec := range secs {
		v := SectionView{ID: sec.ID, Title: sec.Name, Cards: make([]Card, 0, len(sec.Items))}
		for _, it := range sec.Items {
			q := 0
			if quantity != nil {
				q = quantity(it.ID)
			}
			v.Cards = append(v.Cards, NewCard(it, q))
		}
		out = append(out, v)
	}
	return out
}
