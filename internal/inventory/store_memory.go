package inventory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemStore keeps records keyed by normalized name next to the set of live
// ids. Every mutation validates first and touches the map and the id set
// together under the lock.
type MemStore struct {
	mu  sync.RWMutex
	m   map[string]Product
	ids idSet
}

func NewMemStore() *MemStore {
	return &MemStore{
		m:   map[string]Product{},
		ids: idSet{},
	}
}

func (s *MemStore) Add(in AddInput) (int, error) {
	name := NormalizeName(in.Name)
	brand := normalizeBrand(in.Brand)

	switch {
	case name == "":
		return 0, fmt.Errorf("%w: name is required", ErrValidation)
	case len(brand) == 0:
		return 0, fmt.Errorf("%w: brand is required", ErrValidation)
	case in.Quantity < 0:
		return 0, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	case in.Price.IsNegative():
		return 0, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	var exp *string
	if in.ExpirationDate != nil {
		e := strings.TrimSpace(*in.ExpirationDate)
		if e == "" {
			return 0, fmt.Errorf("%w: expiration date is required for perishable products", ErrValidation)
		}
		exp = &e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	id := s.ids.next()
	s.m[name] = newProduct(id, name, strings.TrimSpace(in.Category), brand, in.Quantity, in.Price, exp)
	s.ids.register(id)

	return id, nil
}

func (s *MemStore) Update(name string, patch Patch) error {
	name = NormalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	if patch.Quantity != nil && *patch.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	s.m[name] = p

	return nil
}

func (s *MemStore) Remove(name string) error {
	name = NormalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	delete(s.m, name)
	s.ids.release(p.ID)
	return nil
}

// List returns copies of all records sorted by name.
func (s *MemStore) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p.clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemStore) Find(name string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[NormalizeName(name)]
	if !ok {
		return Product{}, false
	}
	return p.clone(), true
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *MemStore) Counts() map[Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[Kind]int{KindProduct: 0, KindPerishable: 0}
	for _, p := range s.m {
		out[p.Kind()]++
	}
	return out
}

// restore inserts a record reconstructed from a snapshot, keeping its id.
// Records without a name or a positive id are dropped, as are records whose
// id already belongs to another name. A later record with the same name
// replaces the earlier one.
func (s *MemStore) restore(p Product) bool {
	p.Name = NormalizeName(p.Name)
	if p.Name == "" || p.ID <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, replacing := s.m[p.Name]
	if s.ids.has(p.ID) && (!replacing || prev.ID != p.ID) {
		return false
	}

	if replacing {
		s.ids.release(prev.ID)
	}
	s.m[p.Name] = p
	s.ids.register(p.ID)
	return true
}
