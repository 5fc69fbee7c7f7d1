package aggregate

import (
	"slices"
	"strings"

	"github.com/aitool/sleuth/internal/backend"
)

func compareRows(a, b backend.LogRow) int {
	return strings.Compare(a.Timestamp, b.Timestamp)
}

// SortRows orders rows by timestamp ascending in place. Rows with equal
// timestamps keep their relative order.
func SortRows(rows []backend.LogRow) {
	slices.SortStableFunc(rows, compareRows)
}

// IsSorted reports whether rows are in timestamp order.
func IsSorted(rows []backend.LogRow) bool {
	return slices.IsSortedFunc(rows, compareRows)
}

// MergeSorted returns a new slice holding sorted plus extra, ordered by
// timestamp. sorted must already be ordered; extra may arrive in any order.
// On equal timestamps rows from sorted come first.
func MergeSorted(sorted, extra []backend.LogRow) []backend.LogRow {
	if len(extra) == 0 {
		return slices.Clone(sorted)
	}
	incoming := slices.Clone(extra)
	SortRows(incoming)

	out := make([]backend.LogRow, 0, len(sorted)+len(incoming))
	i, j := 0, 0
	for i < len(sorted) && j < len(incoming) {
		if compareRows(incoming[j], sorted[i]) < 0 {
			out = append(out, incoming[j])
			j++
			continue
		}
		out = append(out, sorted[i])
		i++
	}
	out = append(out, sorted[i:]...)
	out = append(out, incoming[j:]...)
	return out
}
