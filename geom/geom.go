/*package geom contains the small amount of vector math needed by the
fluid solver.
*/
package geom

import (
	"math"
)

// Vec is a three dimensional vector.
type Vec [3]float32

// AddSelf adds u to v in place and returns v for chaining.
func (v *Vec) AddSelf(u *Vec) *Vec {
	v[0] += u[0]
	v[1] += u[1]
	v[2] += u[2]
	return v
}

// SubSelf subtracts u from v in place and returns v for chaining.
func (v *Vec) SubSelf(u *Vec) *Vec {
	v[0] -= u[0]
	v[1] -= u[1]
	v[2] -= u[2]
	return v
}

// ScaleSelf multiplies v by s in place and returns v for chaining.
func (v *Vec) ScaleSelf(s float32) *Vec {
	v[0] *= s
	v[1] *= s
	v[2] *= s
	return v
}

// AddScaledSelf adds s*u to v in place and returns v for chaining.
func (v *Vec) AddScaledSelf(u *Vec, s float32) *Vec {
	v[0] += u[0] * s
	v[1] += u[1] * s
	v[2] += u[2] * s
	return v
}

// SubAt stores v - u in out and returns out.
func (v *Vec) SubAt(u, out *Vec) *Vec {
	out[0] = v[0] - u[0]
	out[1] = v[1] - u[1]
	out[2] = v[2] - u[2]
	return out
}

// Dot returns the inner product of v and u.
func (v *Vec) Dot(u *Vec) float32 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Norm returns the Euclidean length of v.
func (v *Vec) Norm() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Dist returns the distance between v and u.
func (v *Vec) Dist(u *Vec) float32 {
	dx := v[0] - u[0]
	dy := v[1] - u[1]
	dz := v[2] - u[2]
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}
