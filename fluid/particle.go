/*package fluid implements a divergence-free SPH (DFSPH) fluid: particle
state, the spatial neighborhood index, and the two-solve pressure
correction loop that advances the simulation one adaptive timestep at a
time.
*/
package fluid

import (
	"github.com/gosph/dfsph/geom"
	"github.com/gosph/dfsph/kernel"
)

// factorEps is the smallest kernel-gradient denominator for which the
// stiffness factor is still computed. Particles with fewer neighbors
// than that get a factor of zero, which disables their pressure
// response instead of letting it blow up.
const factorEps = 1e-6

// VecField selects which per-particle vector field an interpolation
// reads.
type VecField int

const (
	Velocity VecField = iota
	VelocityPredict
)

// Particle is one fluid element. Particles live in a single contiguous
// slice owned by Fluid and are referenced by index everywhere,
// including inside the neighborhood index.
type Particle struct {
	Position        geom.Vec
	Velocity        geom.Vec
	VelocityPredict geom.Vec

	// Density is the measured density at the start of the current
	// step. DensityPredict is recomputed during the constant-density
	// solve.
	Density        float32
	DensityPredict float32

	Mass float32

	// Pressure is the constant-density solver's stiffness term,
	// PressureValue the divergence solver's. They are distinct
	// quantities and never share storage.
	Pressure      float32
	PressureValue float32

	// Factor is the DFSPH stiffness factor, recomputed once per step
	// from the neighbor set current at the start of the step.
	Factor float32
}

func (p *Particle) vecField(f VecField) *geom.Vec {
	if f == VelocityPredict {
		return &p.VelocityPredict
	}
	return &p.Velocity
}

// ComputeDensity returns the SPH density estimate at p's position. The
// neighbor list may include p itself; with no neighbors at all the
// estimate is zero.
func (p *Particle) ComputeDensity(
	ps []Particle, neighbors []int32, k *kernel.Cubic,
) float32 {
	density := float32(0)
	for _, j := range neighbors {
		q := &ps[j]
		density += q.Mass * k.Value(p.Position.Dist(&q.Position))
	}
	return density
}

// ComputeFactor returns the DFSPH stiffness factor
//
//	rho_i / (|sum_j m_j grad W_ij|^2 + sum_j |m_j grad W_ij|^2).
//
// A near-zero denominator means the particle is under-neighbored; its
// factor is zero so the pressure solves leave it alone.
func (p *Particle) ComputeFactor(
	ps []Particle, neighbors []int32, k *kernel.Cubic,
) float32 {
	var gradSum geom.Vec
	sqrSum := float32(0)

	for _, j := range neighbors {
		q := &ps[j]
		g := k.Gradient(&p.Position, &q.Position)
		g.ScaleSelf(q.Mass)
		gradSum.AddSelf(&g)
		sqrSum += g.Dot(&g)
	}

	denom := gradSum.Dot(&gradSum) + sqrSum
	if denom < factorEps {
		return 0
	}
	return p.Density / denom
}

// ComputeDensityPredict updates p.DensityPredict with the density that
// the current predicted velocities would produce after dt:
//
//	rho*_i = rho_i + dt sum_j m_j (v*_i - v*_j) . grad W_ij.
func (p *Particle) ComputeDensityPredict(
	ps []Particle, neighbors []int32, k *kernel.Cubic, dt float32,
) {
	var rel geom.Vec
	change := float32(0)

	for _, j := range neighbors {
		q := &ps[j]
		g := k.Gradient(&p.Position, &q.Position)
		p.VelocityPredict.SubAt(&q.VelocityPredict, &rel)
		change += q.Mass * rel.Dot(&g)
	}

	p.DensityPredict = p.Density + dt*change
}

// InterpolateDivergence returns the SPH divergence estimate of the
// selected vector field at p's position. Neighbors are read-only; only
// p's own state may be written by its caller.
func (p *Particle) InterpolateDivergence(
	ps []Particle, neighbors []int32, k *kernel.Cubic, field VecField,
) float32 {
	if p.Density == 0 {
		return 0
	}

	var rel geom.Vec
	vi := p.vecField(field)
	sum := float32(0)

	for _, j := range neighbors {
		q := &ps[j]
		g := k.Gradient(&p.Position, &q.Position)
		vi.SubAt(q.vecField(field), &rel)
		sum += q.Mass * rel.Dot(&g)
	}

	return -sum / p.Density
}
