package fluid

import (
	"math"

	"github.com/gosph/dfsph/geom"
)

// gridCell addresses one bucket of the spatial hash. Cells are cubes
// with sides equal to the kernel support radius, so a query only ever
// has to look at the 27 cells surrounding the query position.
type gridCell [3]int32

// Neighborhoods is the spatial acceleration structure used to find all
// particles within the kernel support radius of a position. It holds
// indices into the owning Fluid's particle slice, never particle data
// itself, and is rebuilt from scratch once per step after positions
// change.
type Neighborhoods struct {
	support  float32
	support2 float32
	invCell  float32
	cells    map[gridCell][]int32
}

// BuildNeighborhoods constructs the index from the full particle
// collection in a single pass.
func BuildNeighborhoods(ps []Particle, support float32) *Neighborhoods {
	n := &Neighborhoods{
		support:  support,
		support2: support * support,
		invCell:  1 / support,
		cells:    make(map[gridCell][]int32, len(ps)),
	}

	for i := range ps {
		c := n.cellOf(&ps[i].Position)
		n.cells[c] = append(n.cells[c], int32(i))
	}

	return n
}

func (n *Neighborhoods) cellOf(pos *geom.Vec) gridCell {
	return gridCell{
		int32(math.Floor(float64(pos[0] * n.invCell))),
		int32(math.Floor(float64(pos[1] * n.invCell))),
		int32(math.Floor(float64(pos[2] * n.invCell))),
	}
}

// GetNeighbors appends to out the indices of all particles within the
// support radius of pos, including a particle at pos itself, and
// returns the extended slice. The order is deterministic for a given
// build. A position with no particles in range yields an empty result,
// which callers must accept.
func (n *Neighborhoods) GetNeighbors(
	pos *geom.Vec, ps []Particle, out []int32,
) []int32 {
	center := n.cellOf(pos)

	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				c := gridCell{center[0] + dx, center[1] + dy, center[2] + dz}
				for _, j := range n.cells[c] {
					var d geom.Vec
					pos.SubAt(&ps[j].Position, &d)
					if d.Dot(&d) <= n.support2 {
						out = append(out, j)
					}
				}
			}
		}
	}

	return out
}

// SupportRadius returns the query radius the index was built with.
func (n *Neighborhoods) SupportRadius() float32 { return n.support }
