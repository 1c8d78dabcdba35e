package frames

import "sort"

// Hierarchy is the topology derived from Store: child->parent (1:1),
// parent->children (1:N), roots and breadth-first depth.
type Hierarchy struct {
	parents  map[string]string
	children map[string]map[string]struct{}
	depth    map[string]int
	roots    []string
}

// NewHierarchy creates an empty hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		parents:  make(map[string]string),
		children: make(map[string]map[string]struct{}),
		depth:    make(map[string]int),
	}
}

// Link records child->parent, pruning child from a different prior parent's
// children set. Re-linking to the same parent is a no-op.
func (h *Hierarchy) Link(child, parent string) {
	if prev, ok := h.parents[child]; ok {
		if prev == parent {
			return
		}
		if set := h.children[prev]; set != nil {
			delete(set, child)
			if len(set) == 0 {
				delete(h.children, prev)
			}
		}
	}

	h.parents[child] = parent
	set := h.children[parent]
	if set == nil {
		set = make(map[string]struct{})
		h.children[parent] = set
	}
	set[child] = struct{}{}
}

// ParentOf returns the recorded parent of id.
func (h *Hierarchy) ParentOf(id string) (string, bool) {
	p, ok := h.parents[id]
	return p, ok
}

// ChildrenOf returns the direct children of id, sorted. Never nil.
func (h *Hierarchy) ChildrenOf(id string) []string {
	set := h.children[id]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// IsRoot reports whether no parent edge is recorded for id.
func (h *Hierarchy) IsRoot(id string) bool {
	_, ok := h.parents[id]
	return !ok
}

// WouldCycle reports whether linking child under parent would close a cycle,
// i.e. child is parent itself or one of parent's ancestors.
func (h *Hierarchy) WouldCycle(child, parent string) bool {
	cur := parent
	for steps := 0; steps <= len(h.parents); steps++ {
		if cur == child {
			return true
		}
		next, ok := h.parents[cur]
		if !ok {
			return false
		}
		cur = next
	}
	// A chain longer than the edge count is itself cyclic.
	return true
}

// Recompute rebuilds the root list and depths by breadth-first search from
// every root among ids. Frames not reachable from a root get no depth.
func (h *Hierarchy) Recompute(ids []string) {
	h.roots = h.roots[:0]
	for _, id := range ids {
		if h.IsRoot(id) {
			h.roots = append(h.roots, id)
		}
	}
	sort.Strings(h.roots)

	clear(h.depth)
	queue := make([]string, 0, len(ids))
	for _, r := range h.roots {
		h.depth[r] = 0
		queue = append(queue, r)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for c := range h.children[id] {
			if _, seen := h.depth[c]; seen {
				continue
			}
			h.depth[c] = h.depth[id] + 1
			queue = append(queue, c)
		}
	}
}

// Roots returns the roots found by the last Recompute, sorted.
func (h *Hierarchy) Roots() []string {
	out := make([]string, len(h.roots))
	copy(out, h.roots)
	return out
}

// Depth returns the distance from id to its root as of the last Recompute.
func (h *Hierarchy) Depth(id string) (int, bool) {
	d, ok := h.depth[id]
	return d, ok
}
