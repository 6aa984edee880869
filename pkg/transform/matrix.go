package transform

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/camera"
)

// Matrix is a 3x3 affine matrix in column-major order:
//
//	| m0 m3 m6 |
//	| m1 m4 m7 |
//	| m2 m5 m8 |
type Matrix [9]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Scale returns a scaling matrix.
func Scale(x, y float64) Matrix {
	m := Identity()
	m[0], m[4] = x, y
	return m
}

// Rotate returns a counter-clockwise rotation by angle radians.
func Rotate(angle float64) Matrix {
	s, c := math.Sincos(angle)
	m := Identity()
	m[0], m[1], m[3], m[4] = c, s, -s, c
	return m
}

// Translate returns a translation matrix.
func Translate(x, y float64) Matrix {
	m := Identity()
	m[6], m[7] = x, y
	return m
}

// Multiply returns m·b, so b applies to a vector before m.
func (m Matrix) Multiply(b Matrix) Matrix {
	var out Matrix
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*3+row] = m[row]*b[col*3] + m[3+row]*b[col*3+1] + m[6+row]*b[col*3+2]
		}
	}
	return out
}

// Apply transforms the point (x, y, z). Use z=1 for positions and z=0 for
// directions.
func (m Matrix) Apply(x, y, z float64) (float64, float64) {
	return x*m[0] + y*m[3] + z*m[6], x*m[1] + y*m[4] + z*m[7]
}

// Dimensions is a width and height pair.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CorrectionRatio compensates for the aspect ratio of the graph against the
// aspect ratio of the viewport, so that a graph fills the smaller viewport
// axis.
func CorrectionRatio(viewport, graphDims Dimensions) float64 {
	vr := viewport.Height / viewport.Width
	gr := graphDims.Height / graphDims.Width
	if (vr < 1 && gr > 1) || (vr > 1 && gr < 1) {
		return 1
	}
	return math.Min(math.Max(gr, 1/gr), math.Max(1/vr, vr))
}

// CameraMatrix composes the framed-graph to clip-space matrix for the given
// camera state. With inverse set it returns the algebraic inverse of the
// same composition.
func CameraMatrix(s camera.State, viewport, graphDims Dimensions, padding float64, inverse bool) Matrix {
	w, h := viewport.Width, viewport.Height
	smallest := math.Min(w, h) - 2*padding
	cr := CorrectionRatio(viewport, graphDims)

	if !inverse {
		return Scale(2*(smallest/w)*cr, 2*(smallest/h)*cr).
			Multiply(Rotate(-s.Angle)).
			Multiply(Scale(1/s.Ratio, 1/s.Ratio)).
			Multiply(Translate(-s.X, -s.Y))
	}
	return Translate(s.X, s.Y).
		Multiply(Scale(s.Ratio, s.Ratio)).
		Multiply(Rotate(s.Angle)).
		Multiply(Scale(w/smallest/2/cr, h/smallest/2/cr))
}

// MatrixImpact returns the clip-space length of a unit vector along the
// camera angle, expressed as a fraction of the viewport width. Programs use
// it to convert pixel thickness into clip units.
func MatrixImpact(m Matrix, s camera.State, viewport Dimensions) float64 {
	x, y := m.Apply(math.Cos(s.Angle), math.Sin(s.Angle), 0)
	return 1 / math.Hypot(x, y) / viewport.Width
}
