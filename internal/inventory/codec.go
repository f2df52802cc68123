package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Snapshotter hydrates a store at startup and flushes it at shutdown.
type Snapshotter interface {
	Load(ctx context.Context) (*MemStore, error)
	Save(ctx context.Context, s Store) error
	Ping(ctx context.Context) error
}

// document is the persisted shape of one record.
type document struct {
	Type           Kind        `json:"type"`
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	Brand          []string    `json:"brand"`
	Category       string      `json:"category"`
	Quantity       int         `json:"quantity"`
	Price          json.Number `json:"price"`
	ExpirationDate *string     `json:"expiration_date,omitempty"`
}

func toDocument(p Product) document {
	d := document{
		Type:     p.Kind(),
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand(),
		Category: p.Category,
		Quantity: p.Quantity,
		Price:    json.Number(priceText(p.Price)),
	}
	if d.Brand == nil {
		d.Brand = []string{}
	}
	if p.Perishable != nil {
		exp := p.Perishable.ExpirationDate
		d.ExpirationDate = &exp
	}
	return d
}

// priceText keeps the scale the price was written with, so 1.50 stays 1.50.
func priceText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(toDocument(p))
}

// Encode renders records as the persisted JSON array.
func Encode(products []Product) ([]byte, error) {
	docs := make([]document, 0, len(products))
	for _, p := range products {
		docs = append(docs, toDocument(p))
	}
	return json.MarshalIndent(docs, "", "    ")
}

// Decode builds a store from the persisted JSON array. Unparsable input
// yields an empty store and an error wrapping ErrCorruptData. Individual
// documents are coerced field by field and dropped when unusable.
func Decode(data []byte) (*MemStore, error) {
	s := NewMemStore()

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}

	for _, raw := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		s.restore(fromFields(fields))
	}

	return s, nil
}

func fromFields(f map[string]json.RawMessage) Product {
	var exp *string
	if cast.ToString(value(f, "type")) == string(KindPerishable) {
		e := cast.ToString(value(f, "expiration_date"))
		exp = &e
	}

	return newProduct(
		cast.ToInt(value(f, "id")),
		strings.TrimSpace(cast.ToString(value(f, "name"))),
		cast.ToString(value(f, "category")),
		brandValue(value(f, "brand")),
		max(cast.ToInt(value(f, "quantity")), 0),
		priceValue(f["price"]),
		exp,
	)
}

func value(f map[string]json.RawMessage, key string) any {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func brandValue(v any) []string {
	switch b := v.(type) {
	case string:
		return []string{b}
	case []any:
		out, err := cast.ToStringSliceE(b)
		if err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

// priceValue parses the literal text so no precision is lost on the way
// through float64.
func priceValue(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Zero
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
		text = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// LoadFile reads a store from path. A missing file is an empty store.
// A corrupt file is an empty store plus an ErrCorruptData error; the file
// itself is not touched.
func LoadFile(path string) (*MemStore, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewMemStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// SaveFile writes every record, sorted by name, replacing path atomically.
func SaveFile(s Store, path string) error {
	data, err := Encode(s.List())
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// FileSnapshot persists the store as a JSON file.
type FileSnapshot struct {
	Path string
}

func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{Path: path}
}

func (f *FileSnapshot) Load(_ context.Context) (*MemStore, error) {
	return LoadFile(f.Path)
}

func (f *FileSnapshot) Save(_ context.Context, s Store) error {
	return SaveFile(s, f.Path)
}

// Ping checks that the directory holding the file is reachable.
func (f *FileSnapshot) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(f.Path))
	return err
}
