package fluid

import (
	"fmt"
	"runtime"

	"github.com/gosph/dfsph/geom"
	"github.com/gosph/dfsph/kernel"
)

const (
	defaultDensityThreshold    = 0.125
	defaultDivergenceThreshold = 0.3
	defaultCFLParameter        = 0.4
	defaultMaxIterations       = 100
	defaultMaxDeltaTime        = 1.0 / 60
)

// Params describes a simulation. Zero values for the optional fields
// select the documented defaults; required fields are validated by New.
type Params struct {
	// Required.
	RestDensity  float32 // target density
	ParticleSize float32 // nominal particle spacing, also sets the kernel support

	// Optional.
	CFLParameter        float32  // timestep safety factor, default 0.4
	DensityThreshold    float32  // constant-density solve tolerance, default 0.125
	DivergenceThreshold float32  // divergence solve tolerance, default 0.3
	MaxIterations       int      // per-solve iteration cap, default 100
	MaxDeltaTime        float32  // timestep used when no particle moves, default 1/60
	ParticleMass        float32  // default RestDensity * ParticleSize^3
	Viscosity           float32  // non-pressure viscous coefficient, default 0
	Gravity             geom.Vec // constant external acceleration
	Workers             int      // data-parallel width, default NumCPU
}

// CheckInit validates par and fills in defaults for optional fields.
func (par *Params) CheckInit() error {
	if par.RestDensity <= 0 {
		return fmt.Errorf(
			"Need a positive 'RestDensity', but got %g.", par.RestDensity,
		)
	}
	if par.ParticleSize <= 0 {
		return fmt.Errorf(
			"Need a positive 'ParticleSize', but got %g.", par.ParticleSize,
		)
	}

	if par.CFLParameter == 0 {
		par.CFLParameter = defaultCFLParameter
	} else if par.CFLParameter < 0 {
		return fmt.Errorf(
			"'CFLParameter' must be positive, but is %g.", par.CFLParameter,
		)
	}

	if par.DensityThreshold == 0 {
		par.DensityThreshold = defaultDensityThreshold
	} else if par.DensityThreshold < 0 {
		return fmt.Errorf(
			"'DensityThreshold' must be positive, but is %g.",
			par.DensityThreshold,
		)
	}

	if par.DivergenceThreshold == 0 {
		par.DivergenceThreshold = defaultDivergenceThreshold
	} else if par.DivergenceThreshold < 0 {
		return fmt.Errorf(
			"'DivergenceThreshold' must be positive, but is %g.",
			par.DivergenceThreshold,
		)
	}

	if par.MaxIterations == 0 {
		par.MaxIterations = defaultMaxIterations
	} else if par.MaxIterations < 0 {
		return fmt.Errorf(
			"'MaxIterations' must be positive, but is %d.", par.MaxIterations,
		)
	}

	if par.MaxDeltaTime == 0 {
		par.MaxDeltaTime = defaultMaxDeltaTime
	} else if par.MaxDeltaTime < 0 {
		return fmt.Errorf(
			"'MaxDeltaTime' must be positive, but is %g.", par.MaxDeltaTime,
		)
	}

	if par.ParticleMass < 0 {
		return fmt.Errorf(
			"'ParticleMass' must be positive, but is %g.", par.ParticleMass,
		)
	}
	if par.Viscosity < 0 {
		return fmt.Errorf(
			"'Viscosity' must not be negative, but is %g.", par.Viscosity,
		)
	}

	if par.Workers == 0 {
		par.Workers = runtime.NumCPU()
	} else if par.Workers < 0 {
		return fmt.Errorf(
			"'Workers' must be positive, but is %d.", par.Workers,
		)
	}

	return nil
}

// Fluid is the aggregate simulation state: the particle arena, the
// current neighborhood index, and the solver parameters. Positions,
// velocities, densities, and masses are readable through Particles
// after each completed Step.
type Fluid struct {
	Particles []Particle

	neighborhoods *Neighborhoods
	neighbors     [][]int32

	kern kernel.Cubic
	par  Params

	averageDensity float32
	maxVelocity    float32
	deltaTime      float32

	scratch []float32
}

// New creates a fluid from the given initial particle placement.
// Degenerate configurations are rejected here instead of surfacing as
// NaNs mid-step.
func New(positions []geom.Vec, par Params) (*Fluid, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("Need at least one particle, but got none.")
	}
	if err := par.CheckInit(); err != nil {
		return nil, err
	}

	mass := par.ParticleMass
	if mass == 0 {
		size := par.ParticleSize
		mass = par.RestDensity * size * size * size
	}

	f := &Fluid{
		Particles: make([]Particle, len(positions)),
		neighbors: make([][]int32, len(positions)),
		kern:      kernel.Default(par.ParticleSize),
		par:       par,
		deltaTime: par.MaxDeltaTime,
		scratch:   make([]float32, len(positions)),
	}

	for i := range f.Particles {
		f.Particles[i].Position = positions[i]
		f.Particles[i].Mass = mass
	}

	f.refreshNeighborhoods()
	f.forEach(func(i int) {
		p := &f.Particles[i]
		p.Density = p.ComputeDensity(f.Particles, f.neighbors[i], &f.kern)
		p.DensityPredict = p.Density
	})
	f.averageDensity = f.meanDensityPredict()

	return f, nil
}

// Kernel returns the smoothing kernel the fluid was built with.
func (f *Fluid) Kernel() *kernel.Cubic { return &f.kern }

// Neighborhoods returns the current neighborhood index. It is valid
// until the next Step call.
func (f *Fluid) Neighborhoods() *Neighborhoods { return f.neighborhoods }

// AverageDensity returns the mean predicted density measured during
// the last constant-density solve.
func (f *Fluid) AverageDensity() float32 { return f.averageDensity }

// MaxVelocity returns the largest particle speed measured during the
// last timestep adaptation.
func (f *Fluid) MaxVelocity() float32 { return f.maxVelocity }

// DeltaTime returns the current adaptive timestep.
func (f *Fluid) DeltaTime() float32 { return f.deltaTime }

func (f *Fluid) forEach(fn func(i int)) {
	parallelRange(0, len(f.Particles), f.par.Workers, fn)
}

// refreshNeighborhoods rebuilds the spatial index and the per-particle
// neighbor lists from current positions. Queries against the old index
// are invalid afterwards.
func (f *Fluid) refreshNeighborhoods() {
	f.neighborhoods = BuildNeighborhoods(f.Particles, f.kern.SupportRadius())
	f.forEach(func(i int) {
		f.neighbors[i] = f.neighborhoods.GetNeighbors(
			&f.Particles[i].Position, f.Particles, f.neighbors[i][:0],
		)
	})
}

func (f *Fluid) meanDensityPredict() float32 {
	sum := float32(0)
	for i := range f.Particles {
		sum += f.Particles[i].DensityPredict
	}
	return sum / float32(len(f.Particles))
}
