package aop

// OrderedSet is an insertion-ordered set of strings.  Multi-valued relations
// of the graph are OrderedSets so that inserting the same target twice never
// duplicates an edge while iteration order stays reproducible.  The zero
// value is ready to use.
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

// NewOrderedSet returns a set holding values in first-seen order.
func NewOrderedSet(values ...string) OrderedSet {
	var s OrderedSet
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was not present before.
func (s *OrderedSet) Add(v string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// AddAll inserts every value and returns how many were new.
func (s *OrderedSet) AddAll(values ...string) int {
	n := 0
	for _, v := range values {
		if s.Add(v) {
			n++
		}
	}
	return n
}

// Has reports membership.
func (s *OrderedSet) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of members.
func (s *OrderedSet) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order.
func (s *OrderedSet) Items() []string {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
