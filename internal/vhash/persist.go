package vhash

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/sparse"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

// WriteTo serialises the fitted engine. The layout is:
//
//	magic u32, version u32
//	largest, minOccurrence(f32), numFeatures, maxPhrases, downsample,
//	liveStep, smallest, numDocsUsed (u64 unless noted)
//	table: count u64, then per phrase in index order: length u64, bytes, index u64
//	features: count u64, then per vector: maxIndex u64, values, indices
//	weights
//	crc32 (IEEE) of all preceding bytes
//
// Arrays of values, indices and weights carry a u32 length prefix.
func (e *Engine) WriteTo(w io.Writer) (int64, error) {
	n, _, err := e.encode(w)
	return n, err
}

func (e *Engine) encode(w io.Writer) (int64, uint32, error) {
	st := e.state
	if st == nil {
		return 0, 0, apperrors.ErrNotFitted
	}
	enc := newEncoder(w)
	enc.u32(MagicBytes)
	enc.u32(FormatVersion)

	enc.int(e.cfg.LargestNgram)
	enc.f32(e.cfg.MinPhraseOccurrence)
	enc.int(e.cfg.NumFeatures)
	enc.int(e.cfg.MaxNumPhrases)
	enc.int(e.cfg.DownsampleTo)
	enc.int(e.cfg.LiveEvaluationStep)
	enc.int(e.cfg.SmallestNgram)
	enc.int(st.numDocsUsed)

	phrases := st.phrasesByIndex()
	enc.int(len(phrases))
	for idx, p := range phrases {
		enc.str(p)
		enc.int(idx)
	}

	enc.int(len(st.features))
	for _, f := range st.features {
		enc.int(f.MaxIndex)
		enc.f32s(f.Values)
		enc.ints(f.Indices)
	}
	enc.f32s(st.weights)

	sum, err := enc.finish()
	if err != nil {
		return enc.n, 0, fmt.Errorf("writing model: %w", err)
	}
	return enc.n, sum, nil
}

// ReadFrom replaces the engine's hyper-parameters and fitted state with a
// model previously written by WriteTo. Seed and Workers are runtime settings
// and keep their current values. On error the engine is unchanged.
func (e *Engine) ReadFrom(r io.Reader) (int64, error) {
	cfg, st, n, err := e.decode(r)
	if err != nil {
		return n, err
	}
	e.cfg = cfg
	e.state = st
	return n, nil
}

func (e *Engine) decode(r io.Reader) (config.ModelConfig, *fittedState, int64, error) {
	d := newDecoder(r)

	if magic := d.u32(); d.err == nil && magic != MagicBytes {
		return config.ModelConfig{}, nil, d.n, apperrors.Corruptf("bad magic bytes %08x", magic)
	}
	if version := d.u32(); d.err == nil && version != FormatVersion {
		return config.ModelConfig{}, nil, d.n, fmt.Errorf("%w: %d", apperrors.ErrUnsupportedVersion, version)
	}

	cfg := e.cfg
	cfg.LargestNgram = d.int("largest ngram")
	cfg.MinPhraseOccurrence = d.f32()
	cfg.NumFeatures = d.int("num features")
	cfg.MaxNumPhrases = d.int("max phrases")
	cfg.DownsampleTo = d.int("downsample")
	cfg.LiveEvaluationStep = d.int("live evaluation step")
	cfg.SmallestNgram = d.int("smallest ngram")

	st := &fittedState{
		numDocsUsed: d.int("docs used"),
		smallest:    cfg.SmallestNgram,
		largest:     cfg.LargestNgram,
	}

	tableSize := d.int("table size")
	st.table = make(map[string]int, min(tableSize, readChunk))
	for i := 0; i < tableSize && d.err == nil; i++ {
		p := d.str()
		idx := d.int("phrase index")
		if d.err != nil {
			break
		}
		if idx >= tableSize {
			d.fail(apperrors.Corruptf("phrase %q has index %d beyond table size %d", p, idx, tableSize))
			break
		}
		st.table[p] = idx
	}

	numFeatures := d.int("feature count")
	st.features = make([]sparse.Vector, 0, min(numFeatures, readChunk))
	for i := 0; i < numFeatures && d.err == nil; i++ {
		maxIndex := d.int("feature max index")
		values := d.f32s()
		indices := d.ints()
		if d.err != nil {
			break
		}
		v, err := sparse.New(maxIndex, values, indices)
		if err != nil {
			d.fail(apperrors.Corruptf("feature %d: %v", i, err))
			break
		}
		st.features = append(st.features, v)
	}
	st.weights = d.f32s()
	d.verify()
	if d.err != nil {
		return config.ModelConfig{}, nil, d.n, fmt.Errorf("reading model: %w", d.err)
	}
	if err := validateState(cfg, st, tableSize); err != nil {
		return config.ModelConfig{}, nil, d.n, err
	}
	return cfg, st, d.n, nil
}

// validateState checks the cross-field invariants a checksum cannot: the
// table is a permutation of 0..M-1 and every vector spans exactly M columns.
func validateState(cfg config.ModelConfig, st *fittedState, tableSize int) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.Corruptf("stored config: %v", err)
	}
	if len(st.table) != tableSize {
		return apperrors.Corruptf("table has %d distinct phrases, header says %d", len(st.table), tableSize)
	}
	seen := make([]bool, tableSize)
	for p, idx := range st.table {
		if seen[idx] {
			return apperrors.Corruptf("index %d assigned twice (at %q)", idx, p)
		}
		seen[idx] = true
	}
	if len(st.weights) != tableSize {
		return apperrors.Corruptf("%d weights for %d phrases", len(st.weights), tableSize)
	}
	for i, f := range st.features {
		if f.MaxIndex != tableSize {
			return apperrors.Corruptf("feature %d spans %d columns, table has %d", i, f.MaxIndex, tableSize)
		}
	}
	return nil
}

// Save writes the model to path atomically via a temporary file.
func (e *Engine) Save(path string) error {
	if e.state == nil {
		return apperrors.ErrNotFitted
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating model file %s: %w", path, err)
	}
	defer f.Close()

	n, err := e.WriteTo(f)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving model to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing model file %s: %w", path, err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming model file %s: %w", path, err)
	}
	e.logger.Info("model saved", "path", path, "bytes", n)
	return nil
}

// Load reads a model written by Save. Options apply as for New.
func Load(path string, opts ...Option) (*Engine, error) {
	e, err := New(config.DefaultModelConfig(), opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Load(path); err != nil {
		return nil, err
	}
	return e, nil
}

// Load replaces the engine's state with the model stored at path.
func (e *Engine) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening model file %s: %w", path, err)
	}
	defer f.Close()

	n, err := e.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("loading model from %s: %w", path, err)
	}
	e.logger.Info("model loaded",
		"path", path,
		"bytes", n,
		"phrases", len(e.state.table),
		"features", len(e.state.features),
	)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (e *Engine) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Trailing bytes after
// the checksum are rejected.
func (e *Engine) UnmarshalBinary(data []byte) error {
	cfg, st, n, err := e.decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if n != int64(len(data)) {
		return apperrors.Corruptf("%d trailing bytes", int64(len(data))-n)
	}
	e.cfg = cfg
	e.state = st
	return nil
}

// Checksum is the CRC-32 the model carries when saved. It identifies a
// fitted model, for instance in cache keys.
func (e *Engine) Checksum() (uint32, error) {
	st := e.state
	if st == nil {
		return 0, apperrors.ErrNotFitted
	}
	st.sumOnce.Do(func() {
		_, st.sum, st.sumErr = e.encode(io.Discard)
	})
	return st.sum, st.sumErr
}
