package vhash

import (
	"cmp"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/config"
)

// ModelInfo summarises an engine's state.
type ModelInfo struct {
	Fitted      bool               `json:"fitted"`
	TableSize   int                `json:"table_size"`
	Dimensions  int                `json:"dimensions"`
	NumDocsUsed int                `json:"num_docs_used"`
	Checksum    uint32             `json:"checksum,omitempty"`
	Config      config.ModelConfig `json:"config"`
}

// PhraseWeight is one entry of the phrase table.
type PhraseWeight struct {
	Phrase string  `json:"phrase"`
	Index  int     `json:"index"`
	Weight float32 `json:"weight"`
}

// Info describes the engine.
func (e *Engine) Info() ModelInfo {
	info := ModelInfo{Config: e.cfg}
	st := e.state
	if st == nil {
		return info
	}
	info.Fitted = true
	info.TableSize = len(st.table)
	info.Dimensions = len(st.features)
	info.NumDocsUsed = st.numDocsUsed
	if sum, err := e.Checksum(); err == nil {
		info.Checksum = sum
	}
	return info
}

// PhraseIndex looks up the column of phrase, which is normalised first.
func (e *Engine) PhraseIndex(phrase string) (int, bool) {
	if e.state == nil {
		return 0, false
	}
	idx, ok := e.state.table[tokenizer.Normalize(phrase)]
	return idx, ok
}

// Weight returns the learned weight of phrase.
func (e *Engine) Weight(phrase string) (float32, bool) {
	idx, ok := e.PhraseIndex(phrase)
	if !ok {
		return 0, false
	}
	return e.state.weights[idx], true
}

// TopPhrases returns the n heaviest phrases, ties broken alphabetically.
// n <= 0 returns the whole table.
func (e *Engine) TopPhrases(n int) []PhraseWeight {
	st := e.state
	if st == nil {
		return nil
	}
	out := make([]PhraseWeight, 0, len(st.table))
	for p, idx := range st.table {
		out = append(out, PhraseWeight{Phrase: p, Index: idx, Weight: st.weights[idx]})
	}
	slices.SortFunc(out, func(a, b PhraseWeight) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Phrase, b.Phrase)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
