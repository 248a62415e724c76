package geom

import (
	"container/heap"
	"math"
)

// distEntry is one candidate in a bounded k-nearest-neighbor search: an
// entity ordinal plus its squared distance to the query point.
type distEntry struct {
	Ordinal int
	DistSq  float64
}

// maxDistHeap is a bounded max-heap on DistSq, letting NearestK discard
// the current farthest candidate in O(log k) as better ones arrive.
// Same container/heap wiring the teacher's internal/util heap used for
// nearest-vector search, here over mesh entities instead of vectors.
type maxDistHeap []distEntry

func (h maxDistHeap) Len() int            { return len(h) }
func (h maxDistHeap) Less(i, j int) bool  { return h[i].DistSq > h[j].DistSq }
func (h maxDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxDistHeap) Push(x interface{}) { *h = append(*h, x.(distEntry)) }
func (h *maxDistHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NearestK returns the k points in `points` closest to `query`, sorted
// nearest-first. If k >= len(points), all points are returned sorted.
func NearestK(query Vec3, points []Vec3, k int) []distEntry {
	if k <= 0 || len(points) == 0 {
		return nil
	}
	h := &maxDistHeap{}
	heap.Init(h)
	for i, p := range points {
		d := distSq(query, p)
		if h.Len() < k {
			heap.Push(h, distEntry{Ordinal: i, DistSq: d})
			continue
		}
		if d < (*h)[0].DistSq {
			heap.Pop(h)
			heap.Push(h, distEntry{Ordinal: i, DistSq: d})
		}
	}

	out := make([]distEntry, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(distEntry)
	}
	return out
}

// NearestNode finds the single node closest to query among a dense
// coordinate array (node ordinal i at nodes[i]).
func NearestNode(query Vec3, nodes []Vec3) (ordinal int, distance float64, found bool) {
	best := NearestK(query, nodes, 1)
	if len(best) == 0 {
		return 0, 0, false
	}
	return best[0].Ordinal, math.Sqrt(best[0].DistSq), true
}

// NearestElement finds the element whose centroid is closest to query.
func NearestElement(query Vec3, centroids []Vec3) (ordinal int, distance float64, found bool) {
	return NearestNode(query, centroids)
}

func distSq(a, b Vec3) float64 {
	d := sub(a, b)
	return dot(d, d)
}
