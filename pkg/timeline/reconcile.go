package timeline

import (
	"fmt"
	"slices"
	"strings"
)

// Order is the direction the collection is kept in
type Order string

const (
	Ascending  Order = "ascending"
	Descending Order = "descending"
)

// ParseOrder parses a configured order
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Ascending, "":
		return Ascending, nil
	case Descending:
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown order %q", s)
	}
}

// Dedup keeps the first item seen for every id
func Dedup(items []Item) Collection {
	seen := make(map[string]struct{}, len(items))
	out := make(Collection, 0, len(items))
	for _, item := range items {
		id := item.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Sort stably orders items by timestamp. Descending compares in reverse rather
// than reversing an ascending result, so equal timestamps keep their order
// from run to run.
func Sort(items Collection, order Order) {
	slices.SortStableFunc(items, func(a, b Item) int {
		c := CompareTimestamps(a.Timestamp(), b.Timestamp())
		if order == Descending {
			return -c
		}
		return c
	})
}

// Reconcile merges previously loaded items with newly fetched ones. Loaded
// items come first so they win any id collision.
func Reconcile(loaded Collection, fetched []Item, order Order) Collection {
	merged := make([]Item, 0, len(loaded)+len(fetched))
	merged = append(merged, loaded...)
	merged = append(merged, fetched...)

	final := Dedup(merged)
	Sort(final, order)
	return final
}

// IsSorted reports whether every adjacent pair respects order
func IsSorted(items Collection, order Order) bool {
	for i := 1; i < len(items); i++ {
		c := CompareTimestamps(items[i-1].Timestamp(), items[i].Timestamp())
		if (order == Descending && c < 0) || (order != Descending && c > 0) {
			return false
		}
	}
	return true
}

// ResumeBoundary returns the id of the newest item, the point a later fetch
// resumes from. On equal timestamps the item nearer the collection's newest
// end wins. It returns "" for an empty collection.
func ResumeBoundary(items Collection, order Order) string {
	if len(items) == 0 {
		return ""
	}

	newest := -1
	for i, item := range items {
		if newest == -1 {
			newest = i
			continue
		}
		c := CompareTimestamps(item.Timestamp(), items[newest].Timestamp())
		if c > 0 || (c == 0 && order != Descending) {
			newest = i
		}
	}
	return items[newest].ID()
}
