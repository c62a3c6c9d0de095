package geom

import (
	"math"
	"testing"
)

func (v1 *Vec) epsEq(v2 *Vec, eps float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(float64(v1[i]-v2[i])) > eps {
			return false
		}
	}
	return true
}

func TestSelfOps(t *testing.T) {
	v := Vec{1, 2, 3}
	u := Vec{4, 5, 6}

	sum := v
	sum.AddSelf(&u)
	if !sum.epsEq(&Vec{5, 7, 9}, 1e-6) {
		t.Errorf("AddSelf: got %v", sum)
	}

	diff := v
	diff.SubSelf(&u)
	if !diff.epsEq(&Vec{-3, -3, -3}, 1e-6) {
		t.Errorf("SubSelf: got %v", diff)
	}

	scaled := v
	scaled.ScaleSelf(2)
	if !scaled.epsEq(&Vec{2, 4, 6}, 1e-6) {
		t.Errorf("ScaleSelf: got %v", scaled)
	}

	fma := v
	fma.AddScaledSelf(&u, -1)
	if !fma.epsEq(&diff, 1e-6) {
		t.Errorf("AddScaledSelf: got %v, want %v", fma, diff)
	}
}

func TestDotNormDist(t *testing.T) {
	v := Vec{3, 4, 0}
	u := Vec{1, 0, 0}

	if got := v.Dot(&u); got != 3 {
		t.Errorf("Dot: got %g", got)
	}
	if got := v.Norm(); math.Abs(float64(got-5)) > 1e-6 {
		t.Errorf("Norm: got %g", got)
	}
	if got := v.Dist(&u); math.Abs(float64(got)-math.Sqrt(20)) > 1e-5 {
		t.Errorf("Dist: got %g", got)
	}

	var out Vec
	v.SubAt(&u, &out)
	if !out.epsEq(&Vec{2, 4, 0}, 1e-6) {
		t.Errorf("SubAt: got %v", out)
	}
}
