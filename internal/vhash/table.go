package vhash

import (
	"slices"
)

// phraseCounts maps a phrase to the number of times it occurs across the
// sampled documents.
type phraseCounts map[string]int

// removeBelow deletes every phrase seen fewer than threshold times. A
// threshold of zero or less removes nothing.
func (c phraseCounts) removeBelow(threshold int) int {
	if threshold <= 0 {
		return 0
	}
	removed := 0
	for phrase, n := range c {
		if n < threshold {
			delete(c, phrase)
			removed++
		}
	}
	return removed
}

// buildTable counts phrase occurrences over the selected documents,
// pruning as it goes, and assigns indices in lexicographic phrase order.
func (e *Engine) buildTable(st *fittedState, docs []string, selected []bool) map[string]int {
	counts := make(phraseCounts)
	step := e.cfg.LiveEvaluationStep

	for i, doc := range docs {
		if selected[i] {
			for _, p := range st.phrases(doc) {
				counts[p]++
			}
		}
		// Cadence follows corpus position, not the number of sampled docs.
		if step > 0 && (i+1)%step == 0 {
			e.livePrune(counts, i+1)
		}
	}

	threshold := finalThreshold(e.cfg.MinPhraseOccurrence, st.numDocsUsed)
	removed := counts.removeBelow(threshold)
	e.logger.Debug("final phrase pruning",
		"threshold", threshold,
		"removed", removed,
		"remaining", len(counts),
	)
	return assignIndices(counts)
}

// livePrune raises the removal threshold from 2 until the table fits within
// MaxNumPhrases.
func (e *Engine) livePrune(counts phraseCounts, position int) {
	limit := e.cfg.MaxNumPhrases
	if limit <= 0 || len(counts) <= limit {
		return
	}
	before := len(counts)
	threshold := 2
	for len(counts) > limit {
		counts.removeBelow(threshold)
		threshold++
	}
	if e.metrics != nil {
		e.metrics.PrunePassesTotal.Inc()
	}
	e.logger.Debug("live phrase pruning",
		"position", position,
		"before", before,
		"after", len(counts),
		"threshold", threshold-1,
	)
}

// finalThreshold turns MinPhraseOccurrence into a document count: values of
// at least 1 are absolute, smaller values are a fraction of numDocsUsed.
func finalThreshold(minOccurrence float32, numDocsUsed int) int {
	if minOccurrence >= 1 {
		return int(minOccurrence)
	}
	return int(minOccurrence * float32(numDocsUsed))
}

// assignIndices numbers the surviving phrases 0..M-1 in sorted order so a
// fit is reproducible regardless of map iteration order.
func assignIndices(counts phraseCounts) map[string]int {
	phrases := make([]string, 0, len(counts))
	for p := range counts {
		phrases = append(phrases, p)
	}
	slices.Sort(phrases)

	table := make(map[string]int, len(phrases))
	for i, p := range phrases {
		table[p] = i
	}
	return table
}

// phrasesByIndex inverts the table.
func (s *fittedState) phrasesByIndex() []string {
	out := make([]string, len(s.table))
	for p, i := range s.table {
		out[i] = p
	}
	return out
}
