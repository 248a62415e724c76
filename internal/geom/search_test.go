package geom

import "testing"

func TestNearestNode(t *testing.T) {
	nodes := []Vec3{{0, 0, 0}, {5, 0, 0}, {1, 1, 1}}
	ordinal, dist, found := NearestNode(Vec3{1, 0, 0}, nodes)
	if !found {
		t.Fatalf("expected a match")
	}
	if ordinal != 0 {
		t.Fatalf("expected nearest ordinal 0, got %d (dist %v)", ordinal, dist)
	}
}

func TestNearestKSortedAscending(t *testing.T) {
	nodes := []Vec3{{10, 0, 0}, {1, 0, 0}, {5, 0, 0}, {2, 0, 0}}
	got := NearestK(Vec3{0, 0, 0}, nodes, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistSq < got[i-1].DistSq {
			t.Fatalf("expected ascending order, got %+v", got)
		}
	}
	if got[0].Ordinal != 1 {
		t.Fatalf("expected closest ordinal 1, got %d", got[0].Ordinal)
	}
}

func TestNearestKWithMoreKThanPoints(t *testing.T) {
	nodes := []Vec3{{1, 0, 0}, {2, 0, 0}}
	got := NearestK(Vec3{0, 0, 0}, nodes, 10)
	if len(got) != 2 {
		t.Fatalf("expected all points returned, got %d", len(got))
	}
}

func TestExtractSeries(t *testing.T) {
	values := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
	got := ExtractSeries(values, 1)
	want := []float64{2, 5, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractSeries mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}
