package contents

import (
	"container/heap"
	"sort"

	"github.com/pkgstats/pkgstats/internal/model"
)

// Aggregator accumulates per-package occurrence counts from parsed entries.
//
// The zero value is not usable; create instances with NewAggregator. One
// aggregator is owned by a single run and is not safe for concurrent writers.
// For sharded counting, give each worker its own Aggregator and combine the
// partials with Merge: counting is commutative, so the final tally is
// independent of line order and shard boundaries.
//
// Design decision: The count map uses an explicit increment-or-initialize
// update rather than any implicit default-value mechanism, so the counting
// rule is visible at the single place it happens.
type Aggregator struct {
	// counts maps package identifier to occurrence count.
	counts map[string]int

	// lines is the number of entries accumulated, for run bookkeeping.
	lines int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{counts: make(map[string]int)}
}

// Accumulate increments the count for every package identifier in the entry
// by exactly one per occurrence. A package listed twice on one line (as seen
// in malformed duplicates) increments twice; the empty-string sentinel is
// counted like any other identifier.
func (a *Aggregator) Accumulate(entry Entry) {
	for _, pkg := range entry.Packages {
		if _, ok := a.counts[pkg]; ok {
			a.counts[pkg]++
		} else {
			a.counts[pkg] = 1
		}
	}
	a.lines++
}

// Merge adds the counts of other into a. Use it to combine the partial
// counts of sharded workers after they finish. The other aggregator is
// left unchanged.
func (a *Aggregator) Merge(other *Aggregator) {
	for pkg, count := range other.counts {
		a.counts[pkg] += count
	}
	a.lines += other.lines
}

// Count returns the accumulated count for a single package identifier.
func (a *Aggregator) Count(pkg string) int {
	return a.counts[pkg]
}

// Distinct returns the number of distinct package identifiers seen.
func (a *Aggregator) Distinct() int {
	return len(a.counts)
}

// Lines returns the number of entries accumulated so far.
func (a *Aggregator) Lines() int {
	return a.lines
}

// TopN returns up to n packages with the largest counts, ordered by count
// descending. Ties are broken by package identifier ascending, so results
// are deterministic for equal counts.
//
// Selection uses a bounded min-heap of size n rather than sorting all
// distinct packages, which keeps the cost at O(P log n) for P distinct
// packages. The result is recomputed from the current counts on every call;
// calling TopN twice without intervening Accumulate calls yields identical
// results.
func (a *Aggregator) TopN(n int) []model.PackageCount {
	if n <= 0 || len(a.counts) == 0 {
		return []model.PackageCount{}
	}

	h := make(countHeap, 0, n+1)
	for pkg, count := range a.counts {
		stat := model.PackageCount{Package: pkg, Count: count}
		if len(h) < n || lessCount(h[0], stat) {
			heap.Push(&h, stat)
		}
		for len(h) > n {
			heap.Pop(&h)
		}
	}

	// The heap holds the winners in min-first order; emit them descending.
	sort.Slice(h, func(i, j int) bool {
		return lessCount(h[j], h[i])
	})
	return h
}

// lessCount orders two stats by count, breaking ties on the package
// identifier so that the overall ordering is total and deterministic.
// A lexicographically greater identifier ranks lower, which makes the
// final descending output ascend by identifier within equal counts.
func lessCount(a, b model.PackageCount) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.Package > b.Package
}

// countHeap is a min-heap over PackageCount used for bounded top-N
// selection: the root is always the weakest entry still in the running.
type countHeap []model.PackageCount

func (h countHeap) Len() int { return len(h) }

func (h countHeap) Less(i, j int) bool {
	return lessCount(h[i], h[j])
}

func (h countHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *countHeap) Push(x any) {
	*h = append(*h, x.(model.PackageCount))
}

func (h *countHeap) Pop() any {
	prev := *h
	n := len(prev)
	it := prev[n-1]
	*h = prev[:n-1]
	return it
}
