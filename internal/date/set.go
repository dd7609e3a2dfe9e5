package date

import (
	"encoding/json"
	"slices"
)

// Set is an unordered set of calendar days.
type Set map[Date]struct{}

// NewSet returns a set holding ds.
func NewSet(ds ...Date) Set {
	s := make(Set, len(ds))
	for _, d := range ds {
		s.Add(d)
	}
	return s
}

func (s Set) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

func (s Set) Add(d Date) { s[d] = struct{}{} }

func (s Set) Remove(d Date) { delete(s, d) }

// Sorted returns the members in ascending order.
func (s Set) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	slices.SortFunc(out, Date.Compare)
	return out
}

// MarshalJSON writes the set as a sorted array of ISO dates.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var ds []Date
	if err := json.Unmarshal(b, &ds); err != nil {
		return err
	}
	*s = NewSet(ds...)
	return nil
}
