package expression

import (
	"errors"
	"fmt"
)

// MaxSurfacePoints bounds the grid SampleSurface will evaluate.
const MaxSurfacePoints = 1_000_000

// ErrSurfaceDimension is returned for expressions that do not have one or two variables.
var ErrSurfaceDimension = errors.New("surface sampling needs one or two variables")

// SurfacePoint is one sample of the expression value. Y is zero for
// single-variable expressions.
type SurfacePoint struct {
	X int64   `json:"x" yaml:"x"`
	Y int64   `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Surface is the expression sampled on the integer grid [-R, R]^k
// together with the plane z = n it is compared against.
type Surface struct {
	Variables []string       `json:"variables" yaml:"variables"`
	Target    int64          `json:"n" yaml:"n"`
	Radius    int64          `json:"radius" yaml:"radius"`
	Points    []SurfacePoint `json:"points" yaml:"points"`
}

// SampleSurface evaluates e at every grid point of [-radius, radius]^k for
// k in {1, 2}. Z holds the expression value, not the residual; points that
// fail to evaluate are left out.
func SampleSurface(e *Expression, radius, target int64) (*Surface, error) {
	k := len(e.variables)
	if k < 1 || k > 2 {
		return nil, fmt.Errorf("%d variables: %w", k, ErrSurfaceDimension)
	}
	if radius < 0 {
		return nil, fmt.Errorf("radius must be non-negative, got %d", radius)
	}

	side := 2*radius + 1
	if radius > MaxSurfacePoints/2 || (k == 2 && side*side > MaxSurfacePoints) {
		return nil, fmt.Errorf("radius %d exceeds the %d point sampling limit", radius, MaxSurfacePoints)
	}

	s := &Surface{Variables: e.Variables(), Target: target, Radius: radius}
	values := make([]int64, k)

	for x := -radius; x <= radius; x++ {
		values[0] = x
		if k == 1 {
			if z, err := e.EvaluatePoint(values, target); err == nil {
				s.Points = append(s.Points, SurfacePoint{X: x, Z: z + float64(target)})
			}
			continue
		}
		for y := -radius; y <= radius; y++ {
			values[1] = y
			if z, err := e.EvaluatePoint(values, target); err == nil {
				s.Points = append(s.Points, SurfacePoint{X: x, Y: y, Z: z + float64(target)})
			}
		}
	}

	return s, nil
}
