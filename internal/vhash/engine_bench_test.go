package vhash

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/config"
)

var benchTopics = []string{
	"the market rallied after the central bank held rates",
	"the striker scored twice in the second half",
	"new firmware fixes the battery drain on older phones",
	"the senate passed the budget after a long debate",
}

func benchCorpus(n int) ([]string, []int) {
	docs := make([]string, n)
	labels := make([]int, n)
	for i := range docs {
		topic := i % len(benchTopics)
		docs[i] = fmt.Sprintf("%s, report %d from desk %d", benchTopics[topic], i, i%17)
		labels[i] = topic
	}
	return docs, labels
}

func BenchmarkFit(b *testing.B) {
	docs, labels := benchCorpus(2000)
	cfg := config.DefaultModelConfig()
	cfg.Seed = 1
	cfg.NumFeatures = 256
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e := newTestEngine(b, cfg)
		if _, err := e.Fit(docs, labels); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransform(b *testing.B) {
	docs, labels := benchCorpus(2000)
	cfg := config.DefaultModelConfig()
	cfg.Seed = 1
	cfg.NumFeatures = 256
	e := newTestEngine(b, cfg)
	if _, err := e.Fit(docs, labels); err != nil {
		b.Fatal(err)
	}
	batch := docs[:64]
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Transform(batch); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransformParallel(b *testing.B) {
	docs, labels := benchCorpus(2000)
	cfg := config.DefaultModelConfig()
	cfg.Seed = 1
	cfg.NumFeatures = 256
	cfg.Workers = 1
	e := newTestEngine(b, cfg)
	if _, err := e.Fit(docs, labels); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, err := e.Transform(docs[i%len(docs) : i%len(docs)+1]); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}
