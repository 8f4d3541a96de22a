package vhash

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/sparse"
)

// countVector is the log-dampened phrase count vector of doc over the table.
// Unknown phrases are ignored. Counts are accumulated sparsely and the
// result is identical to dampening a dense count array of length M.
func (s *fittedState) countVector(doc string) sparse.Vector {
	counts := make(map[int]float32)
	for _, p := range s.phrases(doc) {
		if idx, ok := s.table[p]; ok {
			counts[idx]++
		}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	slices.Sort(indices)

	values := make([]float32, len(indices))
	for k, idx := range indices {
		values[k] = counts[idx]
	}
	v := sparse.Vector{MaxIndex: len(s.table), Indices: indices, Values: values}
	v.Log1pInPlace()
	return v
}

// vectorize weights the count vector by phrase importance and scales it to
// unit length. A document with no known phrases yields the zero vector.
func (s *fittedState) vectorize(doc string) sparse.Vector {
	v := s.countVector(doc)
	v.MultiplyInPlace(s.weights)
	v.NormalizeInPlace()
	return v
}

// buildFeatures vectorizes min(NumFeatures, len(docs)) anchor documents,
// sampled from the whole corpus and kept in corpus order.
func (e *Engine) buildFeatures(st *fittedState, docs []string) []sparse.Vector {
	n := min(e.cfg.NumFeatures, len(docs))
	mask := e.sampler.Select(len(docs), n)

	features := make([]sparse.Vector, 0, n)
	for i, doc := range docs {
		if mask[i] {
			features = append(features, st.vectorize(doc))
		}
	}
	return features
}
