package cluster

import "container/heap"

// queueItem is one queue entry: an edge and its weight when it was pushed.
type queueItem struct {
	ei     edgeIndex
	weight uint64
}

// edgeQueue is a max-heap of edges keyed by the weight each entry was pushed
// with. Keys never change once an entry is inside the heap.
//
// An edge whose weight grows is pushed again at the new weight, so the queue
// can hold several entries for one edge. The older entries are stale: their
// weight no longer matches the edge, and the clustering loop drops them when
// they surface.
type edgeQueue struct {
	items []queueItem
}

func (q edgeQueue) Len() int { return len(q.items) }

// Less puts heavier entries first and breaks ties by edge index.
func (q edgeQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	return a.ei < b.ei
}

func (q edgeQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *edgeQueue) Push(x any) { q.items = append(q.items, x.(queueItem)) }

func (q *edgeQueue) Pop() any {
	old := q.items
	n := len(old)
	x := old[n-1]
	q.items = old[:n-1]
	return x
}

func (q *edgeQueue) push(ei edgeIndex, weight uint64) {
	heap.Push(q, queueItem{ei: ei, weight: weight})
}

func (q *edgeQueue) pop() queueItem { return heap.Pop(q).(queueItem) }
