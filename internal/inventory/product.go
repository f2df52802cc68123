package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the serialization discriminator of a record.
type Kind string

const (
	KindProduct    Kind = "Product"
	KindPerishable Kind = "PerishableProduct"
)

// Categories are the categories offered by the front-ends. Loaded records
// may carry anything.
var Categories = []string{"Electronics", "Home", "Office"}

func IsKnownCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// Perishable is the payload carried only by perishable records.
type Perishable struct {
	ExpirationDate string
}

// Product is a stored record. Perishable is nil for the base variant.
// Brand is fixed at construction and only readable through Brand().
type Product struct {
	ID         int
	Name       string
	Price      decimal.Decimal
	Quantity   int
	Category   string
	Perishable *Perishable

	brand []string
}

func newProduct(id int, name, category string, brand []string, quantity int, price decimal.Decimal, exp *string) Product {
	p := Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Category: category,
		brand:    slices.Clone(brand),
	}
	if p.brand == nil {
		p.brand = []string{}
	}
	if exp != nil {
		p.Perishable = &Perishable{ExpirationDate: *exp}
	}
	return p
}

func (p Product) Kind() Kind {
	if p.Perishable != nil {
		return KindPerishable
	}
	return KindProduct
}

// Brand returns a copy of the brand sequence.
func (p Product) Brand() []string {
	return slices.Clone(p.brand)
}

// clone detaches the copy from the store's pointers.
func (p Product) clone() Product {
	if p.Perishable != nil {
		exp := *p.Perishable
		p.Perishable = &exp
	}
	p.brand = slices.Clone(p.brand)
	return p
}

func (p Product) String() string {
	brand := ""
	if len(p.brand) > 0 {
		brand = p.brand[0]
	}

	s := fmt.Sprintf("ID: %d | Name: %s | Brand: %s | Category: %s | Quantity: %d | Price: $%s",
		p.ID, p.Name, brand, p.Category, p.Quantity, p.Price.StringFixed(2))
	if p.Perishable != nil {
		s += " | Exp: " + p.Perishable.ExpirationDate
	}
	return s
}

// NormalizeName trims and title-cases a product name. Every store operation
// keys on this form. A Caser is stateful, so one is built per call.
func NormalizeName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}

func normalizeBrand(brand []string) []string {
	out := make([]string, 0, len(brand))
	for _, b := range brand {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
