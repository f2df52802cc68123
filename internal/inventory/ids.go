package inventory

const firstID = 100

// idSet tracks the ids of live records.
type idSet map[int]struct{}

// next returns the id the next new record gets: firstID for an empty set,
// otherwise one past the largest live id, bumped past any collision.
// It does not register the id.
func (s idSet) next() int {
	if len(s) == 0 {
		return firstID
	}

	maxID := 0
	for id := range s {
		maxID = max(maxID, id)
	}

	id := maxID + 1
	for s.has(id) {
		id++
	}
	return id
}

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) register(id int) { s[id] = struct{}{} }

func (s idSet) release(id int) { delete(s, id) }
