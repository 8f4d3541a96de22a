package vhash

import (
	"cmp"
	"slices"

	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

// EncodeLabels maps arbitrary label values onto contiguous class ids. The
// returned classes are the distinct values in sorted order, so
// classes[ids[i]] == values[i].
func EncodeLabels[L cmp.Ordered](values []L) (ids []int, classes []L) {
	classes = slices.Clone(values)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	ids = make([]int, len(values))
	for i, v := range values {
		ids[i], _ = slices.BinarySearch(classes, v)
	}
	return ids, classes
}

// validateLabels checks labels against the document count and returns the
// size of the class space, max(label)+1. Gaps in the label space are allowed.
func validateLabels(numDocs int, labels []int) (int, error) {
	if len(labels) != numDocs {
		return 0, apperrors.Invalidf("%d labels for %d documents", len(labels), numDocs)
	}
	maxLabel := -1
	for i, l := range labels {
		if l < 0 {
			return 0, apperrors.Invalidf("label %d of document %d is negative", l, i)
		}
		maxLabel = max(maxLabel, l)
	}
	return maxLabel + 1, nil
}
