package expression

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forEachBackend(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Helper()
	for _, b := range Backends() {
		t.Run(string(b), func(t *testing.T) {
			fn(t, b)
		})
	}
}

func TestEvaluatePoint(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		vars   []string
		values []int64
		target int64
		want   float64
	}{
		{"sum of cubes solution", "x**3 + y**3 + z**3", []string{"x", "y", "z"}, []int64{1, 1, 1}, 3, 0},
		{"sum of cubes mixed signs", "x**3 + y**3 + z**3", []string{"x", "y", "z"}, []int64{4, 4, -5}, 3, 0},
		{"sum of cubes miss", "x**3 + y**3 + z**3", []string{"x", "y", "z"}, []int64{0, 0, 0}, 3, -3},
		{"caret power", "x^2 + y^2", []string{"x", "y"}, []int64{3, 4}, 25, 0},
		{"unary minus binds below power", "-x**2", []string{"x"}, []int64{3}, 0, -9},
		{"negative exponent", "x**-1", []string{"x"}, []int64{2}, 0, 0.5},
		{"right assoc power", "2**x**2", []string{"x"}, []int64{2}, 0, 16},
		{"expression references n", "x*n", []string{"x"}, []int64{1}, 5, 0},
		{"floored modulo", "x % 3", []string{"x"}, []int64{-1}, 0, 2},
		{"fractional exponent", "x**0.5", []string{"x"}, []int64{4}, 2, 0},
		{"decimal literal", "0.5*x", []string{"x"}, []int64{4}, 2, 0},
		{"constant expression", "2*3 + 1", []string{"x"}, []int64{9}, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, b Backend) {
				e, err := Compile(tt.text, tt.vars, WithBackend(b))
				require.NoError(t, err)

				got, err := e.EvaluatePoint(tt.values, tt.target)
				require.NoError(t, err)
				assert.InDelta(t, tt.want, got, 1e-12)
			})
		})
	}
}

func TestEvaluate_Assignment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		e, err := Compile("x**2 + y", []string{"x", "y"}, WithBackend(b))
		require.NoError(t, err)

		r, err := e.Evaluate(map[string]int64{"x": 2, "y": 1}, 5)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, r, 0)

		_, err = e.Evaluate(map[string]int64{"x": 2}, 5)
		require.ErrorIs(t, err, ErrAssignment)

		_, err = e.Evaluate(map[string]int64{"x": 2, "z": 1}, 5)
		require.ErrorIs(t, err, ErrAssignment)

		_, err = e.Evaluate(map[string]int64{"x": 2, "y": 1, "z": 0}, 5)
		require.ErrorIs(t, err, ErrAssignment)

		_, err = e.EvaluatePoint([]int64{1}, 5)
		require.ErrorIs(t, err, ErrAssignment)
	})
}

func TestEvaluate_NonFinite(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		values []int64
	}{
		{"division by zero", "1/x", []int64{0}},
		{"zero over zero", "x/x", []int64{0}},
		{"modulo by zero", "3 % x", []int64{0}},
		{"negative base fractional exponent", "x**0.5", []int64{-4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, b Backend) {
				e, err := Compile(tt.text, []string{"x"}, WithBackend(b))
				require.NoError(t, err)

				_, err = e.EvaluatePoint(tt.values, 1)
				var evalErr *EvaluationError
				require.ErrorAs(t, err, &evalErr)
				assert.Equal(t, tt.values, evalErr.Values)
				assert.Equal(t, int64(1), evalErr.Target)
				assert.Contains(t, err.Error(), "n=1")
			})
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		vars    []string
		wantMsg string
	}{
		{"syntax error", "x +* y", []string{"x", "y"}, "unexpected token"},
		{"undeclared symbol", "x + w", []string{"x"}, `undeclared symbol "w"`},
		{"empty", "  ", []string{"x"}, "empty expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.text, tt.vars)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Message, tt.wantMsg)
		})
	}
}

func TestCompile_InvalidVariables(t *testing.T) {
	_, err := Compile("x", []string{"x", "x"})
	require.ErrorIs(t, err, core.ErrDuplicateVariable)

	_, err = Compile("x", []string{"n"})
	require.ErrorIs(t, err, core.ErrReservedVariable)

	_, err = Compile("1", nil)
	require.ErrorIs(t, err, core.ErrNoVariables)
}

func TestCompile_UnknownBackend(t *testing.T) {
	_, err := Compile("x", []string{"x"}, WithBackend("jit"))
	require.Error(t, err)
}

func TestExpression_Accessors(t *testing.T) {
	vars := []string{"x", "y"}
	e, err := Compile("x*y", vars)
	require.NoError(t, err)

	assert.Equal(t, "x*y", e.Source())
	assert.Equal(t, "((x * y) - n)", e.String())
	assert.Equal(t, BackendNative, e.Backend())

	got := e.Variables()
	got[0] = "changed"
	assert.Equal(t, []string{"x", "y"}, e.Variables())
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendNative, b)

	b, err = ParseBackend(" EXPR ")
	require.NoError(t, err)
	assert.Equal(t, BackendExpr, b)

	_, err = ParseBackend("llvm")
	require.Error(t, err)
}

func TestIsSolution(t *testing.T) {
	assert.True(t, IsSolution(0))
	assert.True(t, IsSolution(-1e-11))
	assert.False(t, IsSolution(1e-10))
	assert.False(t, IsSolution(1e-9))
	assert.True(t, IsSolutionWithin(0.4, 0.5))
}

func TestEvaluatePoint_Concurrent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		e, err := Compile("x**3 + y**3", []string{"x", "y"}, WithBackend(b))
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for w := range 8 {
			wg.Add(1)
			go func(w int64) {
				defer wg.Done()
				for i := int64(-20); i <= 20; i++ {
					r, err := e.EvaluatePoint([]int64{i, w}, 0)
					if err != nil {
						errs <- err
						return
					}
					if r != float64(i*i*i+w*w*w) {
						errs <- assert.AnError
						return
					}
				}
			}(int64(w))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
}

func TestSampleSurface(t *testing.T) {
	t.Run("two variables", func(t *testing.T) {
		e, err := Compile("x**2 + y**2", []string{"x", "y"})
		require.NoError(t, err)

		s, err := SampleSurface(e, 1, 2)
		require.NoError(t, err)
		require.Len(t, s.Points, 9)
		assert.Equal(t, int64(2), s.Target)
		assert.Equal(t, SurfacePoint{X: -1, Y: -1, Z: 2}, s.Points[0])
		assert.Equal(t, SurfacePoint{X: 0, Y: 0, Z: 0}, s.Points[4])
	})

	t.Run("one variable", func(t *testing.T) {
		e, err := Compile("x**3", []string{"x"})
		require.NoError(t, err)

		s, err := SampleSurface(e, 2, 0)
		require.NoError(t, err)
		require.Len(t, s.Points, 5)
		assert.Equal(t, SurfacePoint{X: 2, Z: 8}, s.Points[4])
	})

	t.Run("undefined points skipped", func(t *testing.T) {
		e, err := Compile("1/x", []string{"x"})
		require.NoError(t, err)

		s, err := SampleSurface(e, 1, 0)
		require.NoError(t, err)
		assert.Len(t, s.Points, 2)
	})

	t.Run("three variables rejected", func(t *testing.T) {
		e, err := Compile("x+y+z", []string{"x", "y", "z"})
		require.NoError(t, err)

		_, err = SampleSurface(e, 1, 0)
		require.ErrorIs(t, err, ErrSurfaceDimension)
	})

	t.Run("grid too large", func(t *testing.T) {
		e, err := Compile("x+y", []string{"x", "y"})
		require.NoError(t, err)

		_, err = SampleSurface(e, 1000, 0)
		require.Error(t, err)
	})
}
