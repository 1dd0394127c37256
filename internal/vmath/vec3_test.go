package vmath

import "testing"

func TestNormAndDistance(t *testing.T) {
	if got := V3(3, 4, 0).Norm(); got != 5 {
		t.Fatalf("norm = %v, want 5", got)
	}
	if got := Distance(V3(1, 1, 1), V3(1, 1, 2.25)); got != 1.25 {
		t.Fatalf("distance = %v, want 1.25", got)
	}
}

func TestNormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("normalize zero = %v", got)
	}
	n := V3(0, 0, 2).Normalize()
	if n != V3(0, 0, 1) {
		t.Fatalf("normalize = %v", n)
	}
}
