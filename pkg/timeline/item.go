// Package timeline holds the persisted collection model and the rules for
// merging fetched items into it: identity, dedup, ordering and the resume
// boundary.
package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// IDField is the identity key every exported item carries
	IDField = "id"

	// TimestampField is the sort key every exported item carries
	TimestampField = "timestamp"
)

// Item is one exported post. Its shape is decided by the export strategy;
// only IDField and TimestampField are required.
type Item map[string]any

// Collection is the ordered content of the output file
type Collection []Item

// ID returns the canonical string form of the item's identity
func (i Item) ID() string {
	return canonical(i[IDField])
}

// Timestamp returns the raw sort key
func (i Item) Timestamp() any {
	return i[TimestampField]
}

// canonical renders ids so that 123, "123" and json.Number("123") compare equal
func canonical(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		if id == math.Trunc(id) && math.Abs(id) < 1<<53 {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	default:
		return fmt.Sprint(id)
	}
}

// timestampLayouts are tried in order when a timestamp is a string
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RubyDate,
	time.RFC1123Z,
	time.RFC1123,
}

// sortKey is a parsed timestamp
type sortKey struct {
	num   float64
	t     time.Time
	str   string
	isNum bool
	isT   bool
}

func parseSortKey(v any) sortKey {
	switch ts := v.(type) {
	case json.Number:
		if f, err := ts.Float64(); err == nil {
			return sortKey{num: f, isNum: true, str: ts.String()}
		}
		return sortKey{str: ts.String()}
	case float64:
		return sortKey{num: ts, isNum: true, str: canonical(ts)}
	case int:
		return sortKey{num: float64(ts), isNum: true, str: strconv.Itoa(ts)}
	case int64:
		return sortKey{num: float64(ts), isNum: true, str: strconv.FormatInt(ts, 10)}
	case string:
		s := strings.TrimSpace(ts)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return sortKey{t: t, isT: true, str: ts}
			}
		}
		return sortKey{str: ts}
	case nil:
		return sortKey{}
	default:
		return sortKey{str: fmt.Sprint(ts)}
	}
}

// CompareTimestamps orders two timestamps: numerically when both are numbers,
// temporally when both parse as dates, lexicographically otherwise.
func CompareTimestamps(a, b any) int {
	ka, kb := parseSortKey(a), parseSortKey(b)
	switch {
	case ka.isNum && kb.isNum:
		switch {
		case ka.num < kb.num:
			return -1
		case ka.num > kb.num:
			return 1
		}
		return 0
	case ka.isT && kb.isT:
		return ka.t.Compare(kb.t)
	default:
		return strings.Compare(ka.str, kb.str)
	}
}
