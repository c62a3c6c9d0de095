package fluid

import (
	"github.com/gosph/dfsph/geom"
)

// Relaxation scales the velocity correction applied by each Jacobi
// iteration of the pressure solves. Values below 1 trade iteration
// count for stability on stiff configurations.
var Relaxation float32 = 0.5

// maxVelocityEps is the speed below which the fluid counts as at rest
// for timestep adaptation.
const maxVelocityEps = 1e-6

// StepReport describes one completed step. A step always leaves the
// fluid in its best current state; the Converged flags distinguish
// "stepped successfully" from "stepped with an unconverged correction".
type StepReport struct {
	DeltaTime float32

	DensityIterations    int
	DivergenceIterations int

	// Per-iteration residuals: mean predicted density error for the
	// constant-density solve, mean density change rate for the
	// divergence solve. The last entry is the final residual.
	DensityResiduals    []float32
	DivergenceResiduals []float32

	DensityConverged    bool
	DivergenceConverged bool
}

// Converged reports whether both pressure solves met their thresholds
// within the iteration cap.
func (r *StepReport) Converged() bool {
	return r.DensityConverged && r.DivergenceConverged
}

// Step advances the simulation by one adaptive timestep. The stages
// run strictly in order; within each stage the per-particle work is
// data-parallel, with every particle writing only its own fields.
func (f *Fluid) Step() StepReport {
	var rep StepReport

	// Measured density and stiffness factor from the neighbor set
	// current at the start of the step.
	f.forEach(func(i int) {
		p := &f.Particles[i]
		p.Density = p.ComputeDensity(f.Particles, f.neighbors[i], &f.kern)
		p.Factor = p.ComputeFactor(f.Particles, f.neighbors[i], &f.kern)
	})

	f.adaptTimeStep()
	rep.DeltaTime = f.deltaTime

	f.advect()

	rep.DensityResiduals, rep.DensityConverged = f.iterate(
		2, f.par.DensityThreshold, f.densityIteration,
	)
	rep.DensityIterations = len(rep.DensityResiduals)

	dt := f.deltaTime
	f.forEach(func(i int) {
		p := &f.Particles[i]
		p.Position.AddScaledSelf(&p.VelocityPredict, dt)
	})

	// Positions changed: every neighbor list is stale from here on.
	f.refreshNeighborhoods()

	rep.DivergenceResiduals, rep.DivergenceConverged = f.iterate(
		1, f.par.DivergenceThreshold, f.divergenceIteration,
	)
	rep.DivergenceIterations = len(rep.DivergenceResiduals)

	f.forEach(func(i int) {
		p := &f.Particles[i]
		p.Velocity = p.VelocityPredict
	})

	return rep
}

// adaptTimeStep applies the CFL condition
//
//	dt = cfl * particleSize / maxVelocity,
//
// clamped to MaxDeltaTime so a resting fluid gets a finite timestep
// instead of a division by zero.
func (f *Fluid) adaptTimeStep() {
	maxV := float32(0)
	for i := range f.Particles {
		if v := f.Particles[i].Velocity.Norm(); v > maxV {
			maxV = v
		}
	}
	f.maxVelocity = maxV

	dt := f.par.MaxDeltaTime
	if maxV > maxVelocityEps {
		if cfl := f.par.CFLParameter * f.par.ParticleSize / maxV; cfl < dt {
			dt = cfl
		}
	}
	f.deltaTime = dt
}

// advect applies the non-pressure accelerations, producing the
// predicted velocity each pressure solve then corrects.
func (f *Fluid) advect() {
	dt := f.deltaTime
	f.forEach(func(i int) {
		p := &f.Particles[i]
		acc := f.par.Gravity
		if f.par.Viscosity > 0 {
			v := f.viscosityAccel(i)
			acc.AddSelf(&v)
		}
		p.VelocityPredict = p.Velocity
		p.VelocityPredict.AddScaledSelf(&acc, dt)
	})
}

// viscosityAccel estimates the viscous acceleration on particle i with
// the usual SPH laplacian approximation over its neighbors.
func (f *Fluid) viscosityAccel(i int) geom.Vec {
	p := &f.Particles[i]
	h := f.kern.SupportRadius()
	eps := 0.01 * h * h

	var acc, rel, dir geom.Vec
	for _, j := range f.neighbors[i] {
		q := &f.Particles[j]
		if q.Density == 0 {
			continue
		}
		p.Velocity.SubAt(&q.Velocity, &rel)
		p.Position.SubAt(&q.Position, &dir)
		g := f.kern.Gradient(&p.Position, &q.Position)
		w := q.Mass / q.Density * rel.Dot(&dir) / (dir.Dot(&dir) + eps)
		acc.AddScaledSelf(&g, w)
	}
	acc.ScaleSelf(10 * f.par.Viscosity)
	return acc
}

// iterate runs the shared skeleton of both pressure solves: perform
// one Jacobi iteration, record its residual, and continue until the
// minimum iteration count has run and the residual meets the
// threshold. The iteration cap bounds non-convergent configurations;
// hitting it is reported rather than silently looping forever.
func (f *Fluid) iterate(
	minIters int, threshold float32, step func() float32,
) (residuals []float32, converged bool) {
	for n := 0; ; n++ {
		if n >= f.par.MaxIterations {
			return residuals, false
		}
		r := step()
		residuals = append(residuals, r)
		if n+1 >= minIters && r <= threshold {
			return residuals, true
		}
	}
}

// densityIteration performs one constant-density correction: predict
// densities from the current predicted velocities, turn the density
// error into a stiffness term, and push the predicted velocities down
// the pairwise pressure gradient. Returns the mean density error.
func (f *Fluid) densityIteration() float32 {
	dt := f.deltaTime

	f.forEach(func(i int) {
		p := &f.Particles[i]
		p.ComputeDensityPredict(f.Particles, f.neighbors[i], &f.kern, dt)
	})

	invDt2 := 1 / (dt * dt)
	f.forEach(func(i int) {
		p := &f.Particles[i]
		p.Pressure = (p.DensityPredict - f.par.RestDensity) * p.Factor * invDt2
	})

	f.applyPressure(func(p *Particle) float32 { return p.Pressure })

	f.averageDensity = f.meanDensityPredict()
	return f.averageDensity - f.par.RestDensity
}

// divergenceIteration performs one divergence-free correction. The
// stiffness term comes straight from the density change rate,
//
//	drho_i/dt = -rho_i div v*_i,
//	kappa_i = drho_i/dt * factor_i / dt,
//
// and the velocity update has the same pairwise form as the density
// solve. Returns the mean density change rate.
func (f *Fluid) divergenceIteration() float32 {
	dt := f.deltaTime

	f.forEach(func(i int) {
		p := &f.Particles[i]
		div := p.InterpolateDivergence(
			f.Particles, f.neighbors[i], &f.kern, VelocityPredict,
		)
		changeRate := -p.Density * div
		f.scratch[i] = changeRate
		p.PressureValue = changeRate * p.Factor / dt
	})

	f.applyPressure(func(p *Particle) float32 { return p.PressureValue })

	sum := float32(0)
	for _, r := range f.scratch {
		sum += r
	}
	return sum / float32(len(f.scratch))
}

// applyPressure accumulates the symmetric pairwise pressure-gradient
// correction into every particle's predicted velocity. The
// (kappa_i/rho_i^2 + kappa_j/rho_j^2) form makes the contributions of
// any mutually-neighboring pair equal and opposite.
func (f *Fluid) applyPressure(kappa func(p *Particle) float32) {
	scale := f.deltaTime * Relaxation

	f.forEach(func(i int) {
		p := &f.Particles[i]
		if p.Density == 0 {
			return
		}
		ki := kappa(p) / (p.Density * p.Density)

		var sum geom.Vec
		for _, j := range f.neighbors[i] {
			q := &f.Particles[j]
			if q.Density == 0 {
				continue
			}
			kj := kappa(q) / (q.Density * q.Density)
			g := f.kern.Gradient(&p.Position, &q.Position)
			sum.AddScaledSelf(&g, q.Mass*(ki+kj))
		}

		p.VelocityPredict.AddScaledSelf(&sum, -scale)
	})
}
