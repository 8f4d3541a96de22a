// Package vhash learns a class-discriminative phrase vocabulary from a
// labeled corpus and projects documents onto a bank of anchor documents,
// producing fixed-length dense vectors for downstream classifiers.
//
// Fit is the only mutator and must not run concurrently with any other call
// on the same Engine. Once fitted (or loaded) the state is immutable and
// Transform may be called from many goroutines.
package vhash

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/sampler"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/sparse"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
)

// Engine is a vectorizing phrase table.
type Engine struct {
	cfg     config.ModelConfig
	state   *fittedState
	sampler sampler.Sampler
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// fittedState is everything Fit produces. It is never mutated after
// construction, which is what makes concurrent Transform safe.
type fittedState struct {
	table       map[string]int
	weights     []float32
	features    []sparse.Vector
	numDocsUsed int
	smallest    int
	largest     int

	sumOnce sync.Once
	sum     uint32
	sumErr  error
}

// Option customises an Engine.
type Option func(*Engine)

// WithSampler replaces the seeded uniform sampler.
func WithSampler(s sampler.Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

// WithMetrics records fit and transform activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an unfitted Engine.
func New(cfg config.ModelConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Invalidf("model config: %v", err)
	}
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default().With("component", "vhash"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sampler == nil {
		e.sampler = sampler.NewUniform(cfg.Seed)
	}
	return e, nil
}

// Config returns the hyper-parameters the engine was built or loaded with.
func (e *Engine) Config() config.ModelConfig {
	return e.cfg
}

// Fitted reports whether Fit or Load has populated the engine.
func (e *Engine) Fitted() bool {
	return e.state != nil
}

// Fit learns the phrase table, weights and anchor features from docs and
// their class labels, replacing any previous state. Labels are class ids
// numbered from zero; see EncodeLabels for arbitrary label values. On error
// the previous state is left untouched. The engine is returned for chaining.
func (e *Engine) Fit(docs []string, labels []int) (*Engine, error) {
	start := time.Now()
	st, err := e.fit(docs, labels)
	if err != nil {
		e.recordFit(start, "error")
		return e, fmt.Errorf("fitting model: %w", err)
	}
	e.state = st
	e.recordFit(start, "ok")
	if e.metrics != nil {
		e.metrics.PhraseTableSize.Set(float64(len(st.table)))
		e.metrics.FeatureCount.Set(float64(len(st.features)))
	}
	e.logger.Info("model fitted",
		"docs", len(docs),
		"docs_used", st.numDocsUsed,
		"phrases", len(st.table),
		"features", len(st.features),
		"duration", time.Since(start),
	)
	return e, nil
}

func (e *Engine) fit(docs []string, labels []int) (*fittedState, error) {
	if len(docs) == 0 {
		return nil, apperrors.ErrEmptyCorpus
	}
	numClasses, err := validateLabels(len(docs), labels)
	if err != nil {
		return nil, err
	}

	numDocsUsed := len(docs)
	if e.cfg.DownsampleTo > 0 && e.cfg.DownsampleTo < numDocsUsed {
		numDocsUsed = e.cfg.DownsampleTo
	}
	selected := e.sampler.Select(len(docs), numDocsUsed)

	st := &fittedState{
		numDocsUsed: numDocsUsed,
		smallest:    e.cfg.SmallestNgram,
		largest:     e.cfg.LargestNgram,
	}
	st.table = e.buildTable(st, docs, selected)
	st.weights = computeWeights(st, docs, labels, selected, numClasses)
	st.features = e.buildFeatures(st, docs)
	return st, nil
}

// Transform maps each document to a dense vector with one entry per anchor
// feature. It fails with ErrNotFitted before Fit or Load.
func (e *Engine) Transform(docs []string) ([][]float32, error) {
	return e.TransformContext(context.Background(), docs)
}

// TransformContext is Transform with cancellation. Documents are vectorized
// concurrently, bounded by the configured worker count.
func (e *Engine) TransformContext(ctx context.Context, docs []string) ([][]float32, error) {
	st := e.state
	if st == nil {
		return nil, apperrors.ErrNotFitted
	}
	start := time.Now()
	out := make([][]float32, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = st.project(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transforming documents: %w", err)
	}

	if e.metrics != nil {
		e.metrics.DocsVectorizedTotal.Add(float64(len(docs)))
		e.metrics.TransformLatency.Observe(time.Since(start).Seconds())
	}
	return out, nil
}

// FitTransform fits on docs and then transforms them.
func (e *Engine) FitTransform(docs []string, labels []int) ([][]float32, error) {
	if _, err := e.Fit(docs, labels); err != nil {
		return nil, err
	}
	return e.Transform(docs)
}

// Dimensions is the length of every Transform output row.
func (e *Engine) Dimensions() int {
	if e.state == nil {
		return 0
	}
	return len(e.state.features)
}

func (e *Engine) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (e *Engine) recordFit(start time.Time, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.FitsTotal.WithLabelValues(status).Inc()
	e.metrics.FitDuration.Observe(time.Since(start).Seconds())
}

// phrases extracts every phrase of the configured lengths from doc.
func (s *fittedState) phrases(doc string) []string {
	return tokenizer.PhraseRange(doc, s.smallest, s.largest)
}

// project vectorizes doc and takes its dot product with every anchor.
func (s *fittedState) project(doc string) []float32 {
	v := s.vectorize(doc)
	row := make([]float32, len(s.features))
	for j, f := range s.features {
		row[j] = v.Dot(f)
	}
	return row
}
