package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a bakery product in the catalog
type Product struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	Name        string              `json:"name" db:"name"`
	Slug        string              `json:"slug" db:"slug"`
	Description string              `json:"description" db:"description"`
	Price       decimal.Decimal     `json:"price" db:"price"`
	SalePrice   decimal.NullDecimal `json:"sale_price" db:"sale_price"`
	CategoryID  uuid.UUID           `json:"category_id" db:"category_id"`
	ImageURL    string              `json:"image_url" db:"image_url"`
	IsAvailable bool                `json:"is_available" db:"is_available"`
	IsFeatured  bool                `json:"is_featured" db:"is_featured"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// EffectivePrice returns the price a customer pays right now: the sale
// price when one is set, the regular price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a name: lowercase, runs of
// non-alphanumeric characters collapsed to single hyphens.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
