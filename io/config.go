/*package io reads simulation configuration files and initial particle
placements. Configuration files use gcfg's INI-like syntax; placements
come either from a [Box] lattice description or from a whitespace
separated text table of x y z columns.
*/
package io

import (
	"fmt"

	"github.com/phil-mansfield/table"
	"gopkg.in/gcfg.v1"

	"github.com/gosph/dfsph/fluid"
	"github.com/gosph/dfsph/geom"
)

const ExampleSimFile = `[Simulation]

#######################
# Required Parameters #
#######################

# Target density of the fluid.
RestDensity = 1000

# Nominal particle spacing. Also sets the kernel support radius.
ParticleSize = 0.2

#######################
# Optional Parameters #
#######################

# Number of steps to simulate.
# Steps = 100

# Safety factor of the CFL timestep bound. Default is 0.4.
# CFLParameter = 0.4

# Convergence tolerances of the two pressure solves.
# DensityThreshold    = 0.125
# DivergenceThreshold = 0.3

# Iteration cap for a single pressure solve. A step that hits the cap
# is reported as unconverged instead of looping forever.
# MaxIterations = 100

# Timestep used while the fluid is at rest and the CFL bound is
# unbounded.
# MaxDeltaTime = 0.016666

# Per-particle mass. Defaults to RestDensity * ParticleSize^3.
# ParticleMass = 8

# Viscous acceleration coefficient. Zero disables viscosity.
# Viscosity = 0

# Constant external acceleration.
# GravityX = 0
# GravityY = -9.81
# GravityZ = 0

# Read initial positions from a text table of x y z columns instead of
# the [Box] section.
# PlacementFile = path/to/positions.txt

# Number of worker goroutines per solver stage. Defaults to NumCPU.
# Workers = 4

# Steps between progress log lines.
# LogEvery = 10

[Box]

# Lattice origin.
X = 0
Y = 10
Z = 0

# Lattice extent in particles per axis.
XCells = 20
YCells = 20
ZCells = 20

# Lattice spacing. Defaults to ParticleSize.
# Spacing = 0.2`

type SimulationConfig struct {
	// Required
	RestDensity  float64
	ParticleSize float64

	// Optional
	Steps               int
	CFLParameter        float64
	DensityThreshold    float64
	DivergenceThreshold float64
	MaxIterations       int
	MaxDeltaTime        float64
	ParticleMass        float64
	Viscosity           float64
	GravityX            float64
	GravityY            float64
	GravityZ            float64
	PlacementFile       string
	Workers             int
	LogEvery            int
}

type BoxConfig struct {
	// Required (unless PlacementFile is given)
	XCells, YCells, ZCells int

	// Optional
	X, Y, Z float64
	Spacing float64
}

type SimWrapper struct {
	Simulation SimulationConfig
	Box        BoxConfig
}

func DefaultSimWrapper() *SimWrapper {
	con := SimulationConfig{}
	con.Steps = 100
	con.GravityY = -9.81
	con.LogEvery = 10
	return &SimWrapper{Simulation: con}
}

// ReadSimConfig reads and validates a simulation configuration file.
func ReadSimConfig(fname string) (*SimWrapper, error) {
	wrap := DefaultSimWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}

	if err := wrap.Simulation.CheckInit(); err != nil {
		return nil, err
	}
	if wrap.Simulation.PlacementFile == "" {
		if err := wrap.Box.CheckInit(); err != nil {
			return nil, err
		}
	}

	return wrap, nil
}

func (con *SimulationConfig) CheckInit() error {
	if con.RestDensity <= 0 {
		return fmt.Errorf(
			"Need to specify a positive 'RestDensity', but got %g.",
			con.RestDensity,
		)
	}
	if con.ParticleSize <= 0 {
		return fmt.Errorf(
			"Need to specify a positive 'ParticleSize', but got %g.",
			con.ParticleSize,
		)
	}
	if con.Steps <= 0 {
		return fmt.Errorf("'Steps' must be positive, but is %d.", con.Steps)
	}
	if con.LogEvery <= 0 {
		return fmt.Errorf(
			"'LogEvery' must be positive, but is %d.", con.LogEvery,
		)
	}

	// The remaining solver parameters are range-checked by
	// fluid.Params.CheckInit, which owns their defaults.
	return nil
}

func (box *BoxConfig) CheckInit() error {
	if box.XCells <= 0 {
		return fmt.Errorf(
			"Need to specify a positive 'XCells' for the Box, but got %d.",
			box.XCells,
		)
	} else if box.YCells <= 0 {
		return fmt.Errorf(
			"Need to specify a positive 'YCells' for the Box, but got %d.",
			box.YCells,
		)
	} else if box.ZCells <= 0 {
		return fmt.Errorf(
			"Need to specify a positive 'ZCells' for the Box, but got %d.",
			box.ZCells,
		)
	}
	if box.Spacing < 0 {
		return fmt.Errorf(
			"'Spacing' must be positive, but is %g.", box.Spacing,
		)
	}
	return nil
}

// Params converts the file configuration into solver parameters.
func (con *SimulationConfig) Params() fluid.Params {
	return fluid.Params{
		RestDensity:         float32(con.RestDensity),
		ParticleSize:        float32(con.ParticleSize),
		CFLParameter:        float32(con.CFLParameter),
		DensityThreshold:    float32(con.DensityThreshold),
		DivergenceThreshold: float32(con.DivergenceThreshold),
		MaxIterations:       con.MaxIterations,
		MaxDeltaTime:        float32(con.MaxDeltaTime),
		ParticleMass:        float32(con.ParticleMass),
		Viscosity:           float32(con.Viscosity),
		Gravity: geom.Vec{
			float32(con.GravityX),
			float32(con.GravityY),
			float32(con.GravityZ),
		},
		Workers: con.Workers,
	}
}

// Positions generates the box lattice placement. Spacing falls back to
// the given particle size when unset.
func (box *BoxConfig) Positions(particleSize float64) []geom.Vec {
	spacing := box.Spacing
	if spacing == 0 {
		spacing = particleSize
	}

	ps := make([]geom.Vec, 0, box.XCells*box.YCells*box.ZCells)
	for z := 0; z < box.ZCells; z++ {
		for y := 0; y < box.YCells; y++ {
			for x := 0; x < box.XCells; x++ {
				ps = append(ps, geom.Vec{
					float32(box.X + spacing*float64(x)),
					float32(box.Y + spacing*float64(y)),
					float32(box.Z + spacing*float64(z)),
				})
			}
		}
	}
	return ps
}

// ReadPlacementTable reads particle positions from the first three
// columns of a whitespace separated text table.
func ReadPlacementTable(fname string) ([]geom.Vec, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	if err != nil {
		return nil, err
	}

	xs, ys, zs := cols[0], cols[1], cols[2]
	ps := make([]geom.Vec, len(xs))
	for i := range ps {
		ps[i] = geom.Vec{float32(xs[i]), float32(ys[i]), float32(zs[i])}
	}
	return ps, nil
}

// Positions resolves the configured placement, preferring an explicit
// placement file over the box lattice.
func (wrap *SimWrapper) Positions() ([]geom.Vec, error) {
	if wrap.Simulation.PlacementFile != "" {
		return ReadPlacementTable(wrap.Simulation.PlacementFile)
	}
	return wrap.Box.Positions(wrap.Simulation.ParticleSize), nil
}
