package vhash

import (
	"gonum.org/v1/gonum/floats"
)

// computeWeights scores each phrase by how far its per-class document rate
// strays from its overall rate: the Euclidean distance between the overall
// frequency and every populated class's frequency. Phrases spread evenly
// across classes score zero. Classes without sampled documents are skipped.
func computeWeights(st *fittedState, docs []string, labels []int, selected []bool, numClasses int) []float32 {
	m := len(st.table)
	docsInClass := make([]int, numClasses)
	overall := make([]int, m)
	// docFreq is laid out phrase-major: docFreq[idx*numClasses+class].
	docFreq := make([]int, m*numClasses)
	lastSeen := make([]int, m)

	for i, doc := range docs {
		if !selected[i] {
			continue
		}
		class := labels[i]
		docsInClass[class]++
		stamp := i + 1
		for _, p := range st.phrases(doc) {
			idx, ok := st.table[p]
			if !ok || lastSeen[idx] == stamp {
				continue
			}
			lastSeen[idx] = stamp
			overall[idx]++
			docFreq[idx*numClasses+class]++
		}
	}

	active := make([]int, 0, numClasses)
	for c, n := range docsInClass {
		if n > 0 {
			active = append(active, c)
		}
	}

	weights := make([]float32, m)
	expected := make([]float64, len(active))
	rates := make([]float64, len(active))
	for idx := range weights {
		mean := float64(overall[idx]) / float64(st.numDocsUsed)
		for k, c := range active {
			expected[k] = mean
			rates[k] = float64(docFreq[idx*numClasses+c]) / float64(docsInClass[c])
		}
		weights[idx] = float32(floats.Distance(expected, rates, 2))
	}
	return weights
}
