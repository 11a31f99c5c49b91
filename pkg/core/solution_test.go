package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTuple(t *testing.T) {
	tup := Tuple{1, -2, 3}

	assert.Equal(t, "1,-2,3", tup.Key())
	assert.Equal(t, "(1, -2, 3)", tup.String())
	assert.True(t, tup.InBounds(3))
	assert.False(t, tup.InBounds(2))

	c := tup.Clone()
	c[0] = 9
	assert.Equal(t, int64(1), tup[0], "clone must not alias")
}

func TestSolutionSet_DeduplicatesByValue(t *testing.T) {
	var s SolutionSet

	values := Tuple{1, 2}
	assert.True(t, s.Add(values))
	assert.False(t, s.Add(Tuple{1, 2}))

	// Mutating the caller's slice after Add must not change the stored tuple.
	values[0] = 7
	assert.True(t, s.Contains(Tuple{1, 2}))
	assert.False(t, s.Contains(Tuple{7, 2}))
	assert.Equal(t, 1, s.Len())
}

func TestSolutionSet_Order(t *testing.T) {
	s := NewSolutionSet(Tuple{2, 0}, Tuple{-1, 5}, Tuple{0, 0}, Tuple{2, 0})

	assert.Equal(t, []Tuple{{2, 0}, {-1, 5}, {0, 0}}, s.Tuples())
	assert.Equal(t, []Tuple{{-1, 5}, {0, 0}, {2, 0}}, s.Sorted())
}

func TestSolutionSet_JSON(t *testing.T) {
	rec := Record{N: 3, Solutions: NewSolutionSet(Tuple{1, 1, 1}, Tuple{4, 4, -5})}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3,"solutions":[[1,1,1],[4,4,-5]]}`, string(data))

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, int64(3), decoded.N)
	assert.Equal(t, rec.Solutions.Tuples(), decoded.Solutions.Tuples())
	assert.True(t, decoded.Solutions.Contains(Tuple{4, 4, -5}))
}

func TestSolutionSet_EmptyEncodings(t *testing.T) {
	data, err := json.Marshal(Record{N: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":4,"solutions":[]}`, string(data))

	out, err := yaml.Marshal(Record{N: 4})
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, 4, decoded["n"])
	assert.Equal(t, []any{}, decoded["solutions"])
	assert.Contains(t, string(out), "solutions: []")
}
