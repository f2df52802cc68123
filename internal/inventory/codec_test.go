package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type flat struct {
	Kind       Kind
	ID         int
	Name       string
	Brand      []string
	Category   string
	Quantity   int
	Price      string
	Expiration string
}

func flatten(products []Product) []flat {
	out := make([]flat, 0, len(products))
	for _, p := range products {
		f := flat{
			Kind:     p.Kind(),
			ID:       p.ID,
			Name:     p.Name,
			Brand:    p.Brand(),
			Category: p.Category,
			Quantity: p.Quantity,
			Price:    priceText(p.Price),
		}
		if p.Perishable != nil {
			f.Expiration = p.Perishable.ExpirationDate
		}
		out = append(out, f)
	}
	return out
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_MissingFileIsEmpty(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestLoadFile_CorruptFile(t *testing.T) {
	const garbage = `[{"type": "Product", "id": 1,`
	path := writeFile(t, garbage)

	s, err := LoadFile(path)
	require.ErrorIs(t, err, ErrCorruptData)
	require.NotNil(t, s)
	require.Equal(t, 0, s.Len())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, garbage, string(raw))
}

func TestLoadFile_NotAnArray(t *testing.T) {
	s, err := LoadFile(writeFile(t, `{"name": "Milk"}`))
	require.ErrorIs(t, err, ErrCorruptData)
	require.Equal(t, 0, s.Len())
}

func TestLoadFile_DropsUnusableDocuments(t *testing.T) {
	path := writeFile(t, `[
		{"type": "Product", "id": 0, "name": "Zero"},
		{"type": "Product", "id": -4, "name": "Negative"},
		{"type": "Product", "id": 5, "name": "   "},
		{"type": "Product", "id": 6},
		"not an object",
		42,
		{"type": "Product", "id": 8, "name": "Bolt", "brand": ["Acme"], "category": "Office", "quantity": 3, "price": 0.25}
	]`)

	s, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []flat{{
		Kind: KindProduct, ID: 8, Name: "Bolt", Brand: []string{"Acme"},
		Category: "Office", Quantity: 3, Price: "0.25",
	}}, flatten(s.List()))
}

func TestLoadFile_CoercesFields(t *testing.T) {
	path := writeFile(t, `[
		{"id": "12", "name": " bolt ", "brand": "Acme", "quantity": 2.0, "price": "3.10"},
		{"id": 13.0, "name": "Nut", "brand": [1, "Two"], "quantity": "x", "price": null, "category": 7},
		{"id": 14, "name": "Washer", "quantity": -3, "price": -1}
	]`)

	s, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []flat{
		{Kind: KindProduct, ID: 12, Name: "Bolt", Brand: []string{"Acme"}, Quantity: 2, Price: "3.10"},
		{Kind: KindProduct, ID: 13, Name: "Nut", Brand: []string{"1", "Two"}, Category: "7", Price: "0"},
		{Kind: KindProduct, ID: 14, Name: "Washer", Brand: []string{}, Price: "0"},
	}, flatten(s.List()))
}

func TestLoadFile_DuplicateNamesAndIDs(t *testing.T) {
	path := writeFile(t, `[
		{"id": 200, "name": "Bolt", "quantity": 1},
		{"id": 201, "name": "Bolt", "quantity": 2},
		{"id": 201, "name": "Nut", "quantity": 3}
	]`)

	s, err := LoadFile(path)
	require.NoError(t, err)

	got := flatten(s.List())
	require.Len(t, got, 1)
	require.Equal(t, 201, got[0].ID)
	require.Equal(t, 2, got[0].Quantity)

	// 200 was released when the second Bolt replaced the first.
	require.False(t, s.ids.has(200))

	id, err := s.Add(widget("nut"))
	require.NoError(t, err)
	require.Equal(t, 202, id)
}

func TestLoadFile_LargeIDKeepsPrecision(t *testing.T) {
	path := writeFile(t, `[{"type": "Product", "id": 9007199254740993, "name": "big", "brand": ["Acme"], "category": "Office", "quantity": 1, "price": 1}]`)

	s, err := LoadFile(path)
	require.NoError(t, err)

	p, ok := s.Find("big")
	require.True(t, ok)
	require.Equal(t, 9007199254740993, p.ID)
}

func TestLoadFile_RegistersLoadedIDs(t *testing.T) {
	s, err := LoadFile(writeFile(t, `[{"id": 500, "name": "Bolt", "brand": ["Acme"]}]`))
	require.NoError(t, err)

	id, err := s.Add(widget("nut"))
	require.NoError(t, err)
	require.Equal(t, 501, id)
}

func TestPerishableRecordRoundTrip(t *testing.T) {
	const doc = `{"type":"PerishableProduct","id":7,"name":"Milk","brand":["Dairyco"],"category":"Home","quantity":2,"price":1.50,"expiration_date":"2024-01-01"}`

	s, err := Decode([]byte("[" + doc + "]"))
	require.NoError(t, err)

	p, ok := s.Find("milk")
	require.True(t, ok)
	require.Equal(t, KindPerishable, p.Kind())
	require.Equal(t, "2024-01-01", p.Perishable.ExpirationDate)

	path := filepath.Join(t.TempDir(), "inventory.txt")
	require.NoError(t, SaveFile(s, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Len(t, saved, 1)
	require.JSONEq(t, doc, string(saved[0]))
	require.Contains(t, string(saved[0]), `"price": 1.50`)
}

func TestSaveFile_Format(t *testing.T) {
	s := NewMemStore()
	_, err := s.Add(widget("widget"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "inventory.txt")
	require.NoError(t, SaveFile(s, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[{
		"type": "Product", "id": 100, "name": "Widget", "brand": ["Acme"],
		"category": "Electronics", "quantity": 5, "price": 9.99
	}]`, string(raw))
	require.NotContains(t, string(raw), "expiration_date")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file left behind")
}

func TestSaveFile_ReplacesExistingContent(t *testing.T) {
	path := writeFile(t, `[{"id": 900, "name": "Old", "brand": ["X"]}, {"id": 901, "name": "Older", "brand": ["X"]}]`)

	s := NewMemStore()
	_, err := s.Add(widget("new"))
	require.NoError(t, err)
	require.NoError(t, SaveFile(s, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, flatten(s.List()), flatten(loaded.List()))
}

func TestSaveFile_MissingDirectory(t *testing.T) {
	err := SaveFile(NewMemStore(), filepath.Join(t.TempDir(), "missing", "inventory.txt"))
	require.Error(t, err)
}

func TestProperty_SaveLoadRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)
	dir := t.TempDir()

	properties.Property("load(save(s)) reproduces every record", prop.ForAll(
		func(names []string, qty int, cents int64, brands []string, perishable bool) bool {
			s := NewMemStore()
			for i, n := range names {
				in := AddInput{
					Name:     n,
					Category: Categories[i%len(Categories)],
					Brand:    append([]string{"Acme"}, brands...),
					Quantity: qty + i,
					Price:    decimal.New(cents+int64(i), -2),
				}
				if perishable && i%2 == 0 {
					in.ExpirationDate = ptr("2030-12-31")
				}
				_, _ = s.Add(in)
			}

			path := filepath.Join(dir, "roundtrip.txt")
			if err := SaveFile(s, path); err != nil {
				return false
			}
			loaded, err := LoadFile(path)
			if err != nil {
				return false
			}

			want, got := flatten(s.List()), flatten(loaded.List())
			if len(want) != len(got) {
				return false
			}
			for i := range want {
				wb, _ := json.Marshal(want[i])
				gb, _ := json.Marshal(got[i])
				if string(wb) != string(gb) {
					t.Logf("want %s got %s", wb, gb)
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(0, 1000),
		gen.Int64Range(0, 100000),
		gen.SliceOf(gen.AlphaString()),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
