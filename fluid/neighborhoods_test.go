package fluid

import (
	"math/rand"
	"testing"

	"github.com/gosph/dfsph/geom"
)

// latticeParticles returns an n x n x n lattice with the given spacing
// centered on the origin.
func latticeParticles(n int, spacing float32) []Particle {
	ps := make([]Particle, 0, n*n*n)
	min := -spacing * float32(n-1) / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				ps = append(ps, Particle{
					Position: geom.Vec{
						min + spacing*float32(x),
						min + spacing*float32(y),
						min + spacing*float32(z),
					},
					Mass: 1,
				})
			}
		}
	}
	return ps
}

func TestNeighborCompleteness(t *testing.T) {
	// 5x5x5 lattice spaced at 0.3 with a support radius of 0.5: from
	// the center particle, axis neighbors sit at 0.3, face diagonals
	// at ~0.424, and cube diagonals at ~0.520. Exactly the first two
	// shells plus the particle itself are in range.
	ps := latticeParticles(5, 0.3)
	n := BuildNeighborhoods(ps, 0.5)

	center := geom.Vec{0, 0, 0}
	got := n.GetNeighbors(&center, ps, nil)

	if len(got) != 19 {
		t.Errorf("got %d neighbors, want 19", len(got))
	}

	seen := make(map[int32]bool)
	for _, j := range got {
		seen[j] = true
		if d := center.Dist(&ps[j].Position); d > 0.5 {
			t.Errorf("neighbor %d at distance %g > support", j, d)
		}
	}
	for j := range ps {
		d := center.Dist(&ps[j].Position)
		if d <= 0.5 && !seen[int32(j)] {
			t.Errorf("particle %d at distance %g missing from result", j, d)
		}
	}
}

func TestNeighborsEmpty(t *testing.T) {
	ps := latticeParticles(3, 0.3)
	n := BuildNeighborhoods(ps, 0.5)

	far := geom.Vec{100, 100, 100}
	if got := n.GetNeighbors(&far, ps, nil); len(got) != 0 {
		t.Errorf("got %d neighbors for an isolated position, want 0", len(got))
	}
}

func TestNeighborsDeterministicPerBuild(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ps := make([]Particle, 200)
	for i := range ps {
		ps[i].Position = geom.Vec{
			rnd.Float32(), rnd.Float32(), rnd.Float32(),
		}
	}

	n1 := BuildNeighborhoods(ps, 0.25)
	n2 := BuildNeighborhoods(ps, 0.25)

	for i := range ps {
		got1 := n1.GetNeighbors(&ps[i].Position, ps, nil)
		got2 := n2.GetNeighbors(&ps[i].Position, ps, nil)
		if len(got1) != len(got2) {
			t.Fatalf("build %d: lengths differ (%d vs %d)",
				i, len(got1), len(got2))
		}
		for j := range got1 {
			if got1[j] != got2[j] {
				t.Fatalf("query %d: order differs at %d", i, j)
			}
		}
	}
}

func TestNeighborsIncludeSelf(t *testing.T) {
	ps := latticeParticles(3, 0.3)
	n := BuildNeighborhoods(ps, 0.5)

	for i := range ps {
		found := false
		for _, j := range n.GetNeighbors(&ps[i].Position, ps, nil) {
			if j == int32(i) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("particle %d missing from its own neighborhood", i)
		}
	}
}

func BenchmarkBuildAndQuery(b *testing.B) {
	rnd := rand.New(rand.NewSource(295275912632))
	ps := make([]Particle, 10000)
	for i := range ps {
		ps[i].Position = geom.Vec{
			rnd.Float32() * 10, rnd.Float32() * 10, rnd.Float32() * 10,
		}
	}

	var out []int32
	for i := 0; i < b.N; i++ {
		n := BuildNeighborhoods(ps, 0.4)
		for j := range ps {
			out = n.GetNeighbors(&ps[j].Position, ps, out[:0])
		}
	}
}
