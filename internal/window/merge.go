package window

import (
	"cmp"
	"slices"
)

// Merge attaches windows to their spaces.
//
// Space order is kept as the backend reported it. Windows whose space is not
// in the list are dropped, they belong to transient state the window manager
// has not settled yet. Each space's windows end up sorted by stack index;
// equal indices keep their input order.
func Merge(spaces []Space, windows []Window) []Space {
	merged := make([]Space, 0, len(spaces))
	index := make(map[SpaceID]int, len(spaces))

	for _, sp := range spaces {
		if _, dup := index[sp.ID]; dup {
			continue
		}
		sp.Windows = []Window{}
		index[sp.ID] = len(merged)
		merged = append(merged, sp)
	}

	for _, w := range windows {
		i, ok := index[w.SpaceID]
		if !ok {
			continue
		}
		merged[i].Windows = append(merged[i].Windows, w)
	}

	for i := range merged {
		slices.SortStableFunc(merged[i].Windows, func(a, b Window) int {
			return cmp.Compare(a.StackIndex, b.StackIndex)
		})
	}

	return merged
}
