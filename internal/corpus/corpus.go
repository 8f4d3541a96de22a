// Package corpus loads labeled training documents from files and from
// PostgreSQL.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vhash"
	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

const maxLineBytes = 16 << 20

// Corpus is a set of documents with one textual label each.
type Corpus struct {
	Docs   []string
	Labels []string
}

func (c *Corpus) Len() int { return len(c.Docs) }

func (c *Corpus) add(doc, label string) {
	c.Docs = append(c.Docs, doc)
	c.Labels = append(c.Labels, label)
}

// Encode turns the textual labels into class ids. classes[ids[i]] is the
// label of document i. When every label is a number, classes are ordered
// numerically ("2" before "10") and labels of equal value share a class.
func (c *Corpus) Encode() (ids []int, classes []string) {
	nums, ok := parseNumeric(c.Labels)
	if !ok {
		return vhash.EncodeLabels(c.Labels)
	}
	ids, values := vhash.EncodeLabels(nums)
	classes = make([]string, len(values))
	named := make([]bool, len(values))
	for i, id := range ids {
		if !named[id] {
			classes[id] = c.Labels[i]
			named[id] = true
		}
	}
	return ids, classes
}

func parseNumeric(labels []string) ([]float64, bool) {
	if len(labels) == 0 {
		return nil, false
	}
	nums := make([]float64, len(labels))
	for i, l := range labels {
		f, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
		if err != nil || math.IsNaN(f) {
			return nil, false
		}
		nums[i] = f
	}
	return nums, true
}

// LoadFile reads a labeled corpus. ".jsonl" files hold one
// {"text": ..., "label": ...} object per line; ".tsv" files hold
// "label<TAB>text" lines. Blank lines are skipped.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()

	var c *Corpus
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonl":
		c, err = readJSONL(f, true)
	case ".tsv":
		c, err = readTSV(f)
	default:
		return nil, apperrors.Invalidf("corpus %s: unsupported extension %q (want .jsonl or .tsv)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	return c, nil
}

// LoadDocuments reads unlabeled documents for vectorizing. JSONL files use
// their "text" fields and ignore labels; any other file is read one document
// per line, blank lines included, so output rows line up with input lines.
func LoadDocuments(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocuments(f, strings.EqualFold(filepath.Ext(path), ".jsonl"))
}

// ReadDocuments is LoadDocuments over a reader.
func ReadDocuments(r io.Reader, jsonl bool) ([]string, error) {
	if jsonl {
		c, err := readJSONL(r, false)
		if err != nil {
			return nil, err
		}
		return c.Docs, nil
	}
	var docs []string
	err := eachLine(r, func(_ int, line string) error {
		docs = append(docs, line)
		return nil
	})
	return docs, err
}

type jsonRecord struct {
	Text  *string `json:"text"`
	Label any     `json:"label"`
}

func readJSONL(r io.Reader, requireLabel bool) (*Corpus, error) {
	c := &Corpus{}
	err := scanLines(r, func(n int, line string) error {
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		var rec jsonRecord
		if err := dec.Decode(&rec); err != nil {
			return apperrors.Invalidf("line %d: %v", n, err)
		}
		if rec.Text == nil {
			return apperrors.Invalidf("line %d: missing \"text\"", n)
		}
		label, err := labelString(rec.Label)
		if err != nil {
			if requireLabel {
				return apperrors.Invalidf("line %d: %v", n, err)
			}
			label = ""
		}
		c.add(*rec.Text, label)
		return nil
	})
	return c, err
}

func labelString(v any) (string, error) {
	switch l := v.(type) {
	case string:
		return l, nil
	case json.Number:
		return l.String(), nil
	case bool:
		return fmt.Sprint(l), nil
	case nil:
		return "", fmt.Errorf("missing \"label\"")
	default:
		return "", fmt.Errorf("label must be a string or number, got %T", v)
	}
}

func readTSV(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	err := scanLines(r, func(n int, line string) error {
		label, text, ok := strings.Cut(line, "\t")
		if !ok {
			return apperrors.Invalidf("line %d: expected label<TAB>text", n)
		}
		c.add(text, label)
		return nil
	})
	return c, err
}

// scanLines calls fn with each non-blank line and its 1-based number.
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	return eachLine(r, func(n int, line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		return fn(n, line)
	})
}

// eachLine calls fn with every line, blank or not, without its line ending.
func eachLine(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if err := fn(n, string(line)); err != nil {
			return err
		}
	}
	return sc.Err()
}
