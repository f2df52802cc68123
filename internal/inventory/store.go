package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrDuplicateName = fmt.Errorf("%w: product already exists", ErrValidation)
	ErrNotFound      = errors.New("product not found")
	ErrCorruptData   = errors.New("corrupt inventory data")
)

// AddInput describes a new record. ExpirationDate makes it perishable.
type AddInput struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Brand          []string        `json:"brand"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	ExpirationDate *string         `json:"expiration_date,omitempty"`
}

// Patch lists the fields an update may touch. Nil fields are left alone.
type Patch struct {
	Category *string          `json:"category,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Category == nil && p.Quantity == nil && p.Price == nil
}

type Store interface {
	Add(in AddInput) (int, error)
	Update(name string, patch Patch) error
	Remove(name string) error
	List() []Product
	Find(name string) (Product, bool)
	Len() int
	Counts() map[Kind]int
}
