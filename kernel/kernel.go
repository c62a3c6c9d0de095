/*package kernel implements the cubic spline smoothing kernel used for
all SPH field estimates. The kernel and its gradient vanish smoothly at
the support radius, and the gradient is antisymmetric in its two
arguments, which the pressure solver relies on for momentum
conservation.
*/
package kernel

import (
	"math"

	"github.com/gosph/dfsph/geom"
)

// gradEps is the squared distance below which two particles are
// treated as coincident and the gradient is defined to be zero.
const gradEps = 1e-12

// Cubic is a cubic spline kernel with compact support. The
// normalization constant is precomputed from the support radius.
type Cubic struct {
	h     float32 // support radius
	invH  float32
	sigma float32 // 8 / (pi h^3)
}

// NewCubic returns a kernel with the given support radius.
func NewCubic(h float32) Cubic {
	return Cubic{
		h:     h,
		invH:  1 / h,
		sigma: float32(8 / (math.Pi * float64(h) * float64(h) * float64(h))),
	}
}

// Default returns a kernel whose support radius is tied to the nominal
// particle spacing. Two spacings is the conventional choice: it keeps
// roughly 30-40 neighbors inside the support for a full lattice.
func Default(particleSize float32) Cubic {
	return NewCubic(2 * particleSize)
}

// SupportRadius returns the radius beyond which the kernel vanishes.
func (k *Cubic) SupportRadius() float32 { return k.h }

// Value returns W(r).
func (k *Cubic) Value(r float32) float32 {
	q := r * k.invH
	switch {
	case q <= 0.5:
		return k.sigma * (6*q*q*q - 6*q*q + 1)
	case q <= 1:
		s := 1 - q
		return k.sigma * 2 * s * s * s
	}
	return 0
}

// Deriv returns dW/dr.
func (k *Cubic) Deriv(r float32) float32 {
	q := r * k.invH
	switch {
	case q <= 0.5:
		return k.sigma * k.invH * 6 * q * (3*q - 2)
	case q <= 1:
		s := 1 - q
		return -k.sigma * k.invH * 6 * s * s
	}
	return 0
}

// Gradient returns the gradient of W(|pi - pj|) with respect to pi.
// Gradient(p, p) is the zero vector, and swapping the arguments flips
// the sign of the result.
func (k *Cubic) Gradient(pi, pj *geom.Vec) geom.Vec {
	var dir geom.Vec
	pi.SubAt(pj, &dir)

	r2 := dir.Dot(&dir)
	if r2 < gradEps {
		return geom.Vec{}
	}

	r := float32(math.Sqrt(float64(r2)))
	dir.ScaleSelf(k.Deriv(r) / r)
	return dir
}
