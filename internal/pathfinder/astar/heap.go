package astar

// openHeap orders node indices by f, then h, then insertion sequence, so
// equal-cost frontiers expand deterministically.
type openHeap struct {
	nodes *[]node
	items []int32
}

func (h openHeap) Len() int { return len(h.items) }

func (h openHeap) Less(i, j int) bool {
	a, b := &(*h.nodes)[h.items[i]], &(*h.nodes)[h.items[j]]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (h openHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	(*h.nodes)[h.items[i]].heapIdx = i
	(*h.nodes)[h.items[j]].heapIdx = j
}

func (h *openHeap) Push(x any) {
	idx := x.(int32)
	(*h.nodes)[idx].heapIdx = len(h.items)
	h.items = append(h.items, idx)
}

func (h *openHeap) Pop() any {
	old := h.items
	n := len(old)
	idx := old[n-1]
	h.items = old[:n-1]
	(*h.nodes)[idx].heapIdx = -1
	return idx
}
