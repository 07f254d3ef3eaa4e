package cluster

import "testing"

func TestEdgeQueueOrder(t *testing.T) {
	var q edgeQueue
	for i, w := range []uint64{5, 9, 5, 1} {
		q.push(edgeIndex(i), w)
	}

	want := []edgeIndex{1, 0, 2, 3}
	for _, w := range want {
		if got := q.pop(); got.ei != w {
			t.Errorf("pop = %d, want %d", got.ei, w)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestEdgeQueueRequeue(t *testing.T) {
	var q edgeQueue
	q.push(0, 5)
	q.push(1, 3)

	// Edge 1 grows to 8 and is pushed again; the entry at 3 stays behind.
	q.push(1, 8)

	want := []queueItem{{ei: 1, weight: 8}, {ei: 0, weight: 5}, {ei: 1, weight: 3}}
	for _, w := range want {
		if got := q.pop(); got != w {
			t.Errorf("pop = %+v, want %+v", got, w)
		}
	}
}

// Keys are fixed at push time, so a weight change after the push cannot
// disturb the heap order.
func TestEdgeQueueKeysAreSnapshots(t *testing.T) {
	edges := []edge{
		{from: 0, to: 1, weight: 1},
		{from: 1, to: 2, weight: 2},
		{from: 2, to: 3, weight: 3},
		{from: 3, to: 4, weight: 4},
	}
	var q edgeQueue
	for i, e := range edges {
		q.push(edgeIndex(i), e.weight)
	}

	// Edge 0 becomes the heaviest without being pushed again.
	edges[0].weight = 100

	var prev uint64 = 1<<64 - 1
	for q.Len() > 0 {
		it := q.pop()
		if it.weight > prev {
			t.Fatalf("pop %+v after weight %d", it, prev)
		}
		prev = it.weight
	}
}
