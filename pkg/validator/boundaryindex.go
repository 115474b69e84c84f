package validator

import (
	"sort"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/schematic"
)

// boundaryIndex resolves a point to the die boundary containing it. Dies
// are ordered by XMin and candidates are narrowed with a binary search,
// then scanned backward only as far as the widest boundary could still
// reach the query point. This is exact for the near-uniform, largely
// non-overlapping rectangles a schematic parser produces, and avoids a
// full interval tree for what is, in practice, a bounded die count.
type boundaryIndex struct {
	boundaries []schematic.DieBoundary
	order      []int
	maxWidth   float64
}

func newBoundaryIndex(dies []schematic.DieBoundary) *boundaryIndex {
	order := make([]int, len(dies))
	var maxWidth float64
	for i, d := range dies {
		order[i] = i
		if w := d.Width(); w > maxWidth {
			maxWidth = w
		}
	}
	sort.Slice(order, func(a, b int) bool {
		return dies[order[a]].Bounds.XMin < dies[order[b]].Bounds.XMin
	})
	return &boundaryIndex{boundaries: dies, order: order, maxWidth: maxWidth}
}

// find returns the die boundary containing (x, y), if any.
func (idx *boundaryIndex) find(x, y float64) (schematic.DieBoundary, bool) {
	p := geometry.Point2D{X: x, Y: y}
	i := sort.Search(len(idx.order), func(k int) bool {
		return idx.boundaries[idx.order[k]].Bounds.XMin > x
	})
	for j := i - 1; j >= 0; j-- {
		b := idx.boundaries[idx.order[j]]
		if b.Bounds.XMin < x-idx.maxWidth {
			break
		}
		if geometry.Contains(b.Bounds, p) {
			return b, true
		}
	}
	return schematic.DieBoundary{}, false
}
