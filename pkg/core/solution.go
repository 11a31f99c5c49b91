package core

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Tuple is one integer value per declared variable, in declaration order.
type Tuple []int64

// Clone returns an independent copy of t.
func (t Tuple) Clone() Tuple {
	return slices.Clone(t)
}

// Key returns a canonical string used for value-equality lookups.
func (t Tuple) Key() string {
	var sb strings.Builder
	for i, v := range t {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	}
	return sb.String()
}

// InBounds reports whether every component lies in [-r, r].
func (t Tuple) InBounds(r int64) bool {
	for _, v := range t {
		if v < -r || v > r {
			return false
		}
	}
	return true
}

func (t Tuple) String() string {
	return "(" + strings.ReplaceAll(t.Key(), ",", ", ") + ")"
}

// Compare orders tuples lexicographically.
func (t Tuple) Compare(o Tuple) int {
	return slices.Compare(t, o)
}

// SolutionSet is a set of tuples that keeps insertion order.
// The zero value is an empty set ready to use.
type SolutionSet struct {
	tuples []Tuple
	index  map[string]struct{}
}

// NewSolutionSet builds a set from the given tuples, dropping duplicates.
func NewSolutionSet(tuples ...Tuple) SolutionSet {
	var s SolutionSet
	for _, t := range tuples {
		s.Add(t)
	}
	return s
}

// Add inserts a copy of t and reports whether it was new.
func (s *SolutionSet) Add(t Tuple) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	key := t.Key()
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.tuples = append(s.tuples, t.Clone())
	return true
}

// Len returns the number of tuples in the set.
func (s SolutionSet) Len() int {
	return len(s.tuples)
}

// Contains reports whether t is in the set.
func (s SolutionSet) Contains(t Tuple) bool {
	_, ok := s.index[t.Key()]
	return ok
}

// Tuples returns the tuples in insertion order.
func (s SolutionSet) Tuples() []Tuple {
	return slices.Clone(s.tuples)
}

// Sorted returns the tuples in lexicographic order.
func (s SolutionSet) Sorted() []Tuple {
	out := s.Tuples()
	slices.SortFunc(out, Tuple.Compare)
	return out
}

// MarshalJSON encodes the set as an array of arrays.
func (s SolutionSet) MarshalJSON() ([]byte, error) {
	if s.tuples == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.tuples)
}

// UnmarshalJSON decodes an array of arrays, dropping duplicates.
func (s *SolutionSet) UnmarshalJSON(data []byte) error {
	var tuples []Tuple
	if err := json.Unmarshal(data, &tuples); err != nil {
		return err
	}
	*s = NewSolutionSet(tuples...)
	return nil
}

// MarshalYAML encodes the set as a sequence of sequences.
func (s SolutionSet) MarshalYAML() (any, error) {
	if s.tuples == nil {
		return []Tuple{}, nil
	}
	return s.tuples, nil
}
