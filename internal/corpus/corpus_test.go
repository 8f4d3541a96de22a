package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_JSONL(t *testing.T) {
	path := writeFile(t, "train.jsonl", `{"text":"hi, my name is Mike","label":"greeting"}
{"text":"hi, my name is George","label":7}

{"text":"hello, my name is Mike","label":"greeting"}
`)
	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi, my name is Mike", "hi, my name is George", "hello, my name is Mike"}, c.Docs)
	assert.Equal(t, []string{"greeting", "7", "greeting"}, c.Labels)
	assert.Equal(t, 3, c.Len())

	ids, classes := c.Encode()
	assert.Equal(t, []int{1, 0, 1}, ids)
	assert.Equal(t, []string{"7", "greeting"}, classes)
}

func TestEncode_NumericLabelsSortNumerically(t *testing.T) {
	c := &Corpus{
		Docs:   []string{"a", "b", "c", "d", "e"},
		Labels: []string{"10", "2", "2.0", "-1", "10"},
	}
	ids, classes := c.Encode()
	assert.Equal(t, []int{2, 1, 1, 0, 2}, ids)
	assert.Equal(t, []string{"-1", "2", "10"}, classes)

	mixed := &Corpus{Docs: []string{"a", "b"}, Labels: []string{"10", "pos"}}
	ids, classes = mixed.Encode()
	assert.Equal(t, []int{0, 1}, ids)
	assert.Equal(t, []string{"10", "pos"}, classes)
}

func TestLoadFile_TSV(t *testing.T) {
	path := writeFile(t, "train.tsv", "pos\tgreat movie\r\nneg\tawful\tplot\n")
	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"great movie", "awful\tplot"}, c.Docs)
	assert.Equal(t, []string{"pos", "neg"}, c.Labels)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name, file, content, want string
	}{
		{"bad json", "a.jsonl", "{\"text\":\n", "line 1"},
		{"missing label", "a.jsonl", `{"text":"x"}`, `missing "label"`},
		{"missing text", "a.jsonl", `{"label":"x"}`, `missing "text"`},
		{"object label", "a.jsonl", `{"text":"x","label":{"a":1}}`, "string or number"},
		{"no tab", "a.tsv", "pos\tok\nbroken line\n", "line 2"},
		{"extension", "a.csv", "x", "unsupported extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), err.Error())
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDocuments(t *testing.T) {
	docs, err := ReadDocuments(strings.NewReader("first doc\n\nthird doc\r\n"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"first doc", "", "third doc"}, docs, "blank lines are empty documents")

	docs, err = ReadDocuments(strings.NewReader(`{"text":"a"}`+"\n"+`{"text":"b","label":1}`), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, docs)
}

func TestLoadDocuments_UsesExtension(t *testing.T) {
	docs, err := LoadDocuments(writeFile(t, "in.jsonl", `{"text":"only text"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"only text"}, docs)

	docs, err = LoadDocuments(writeFile(t, "in.txt", `{"text":"only text"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"text":"only text"}`}, docs)
}
