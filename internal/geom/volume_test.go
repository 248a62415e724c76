package geom

import "testing"

func unitCubeCorners() []Vec3 {
	return []Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
}

func TestHex8VolumeUnitCube(t *testing.T) {
	v, err := ElementVolume("HEX8", unitCubeCorners())
	if err != nil {
		t.Fatalf("ElementVolume: %v", err)
	}
	if diff := v - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected unit volume, got %v", v)
	}
}

func TestTet4VolumeRightTetrahedron(t *testing.T) {
	corners := []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	v, err := ElementVolume("TET4", corners)
	if err != nil {
		t.Fatalf("ElementVolume: %v", err)
	}
	want := 1.0 / 6.0
	if diff := v - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected volume %v, got %v", want, v)
	}
}

func TestElementVolumeUnknownTopology(t *testing.T) {
	if _, err := ElementVolume("NONSENSE9", unitCubeCorners()); err == nil {
		t.Fatalf("expected error for unknown topology")
	}
}

func TestElementVolumeDegenerateDoesNotPanic(t *testing.T) {
	flat := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
	v, err := ElementVolume("HEX8", flat)
	if err != nil {
		t.Fatalf("ElementVolume on degenerate hex: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected ~zero volume for a flattened hex, got %v", v)
	}
}

func TestHex8CentroidUnitCube(t *testing.T) {
	c, err := ElementCentroid("HEX8", unitCubeCorners())
	if err != nil {
		t.Fatalf("ElementCentroid: %v", err)
	}
	want := Vec3{0.5, 0.5, 0.5}
	if (c.X-want.X) > 1e-9 || (c.Y-want.Y) > 1e-9 || (c.Z-want.Z) > 1e-9 {
		t.Fatalf("expected centroid %v, got %v", want, c)
	}
}
