package vhash

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	e := fittedNamesEngine(t)
	path := filepath.Join(t.TempDir(), "names.vhash")
	require.NoError(t, e.Save(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	loaded, err := Load(path, WithLogger(quietLogger()))
	require.NoError(t, err)

	want, err := e.Transform(namesCorpus)
	require.NoError(t, err)
	got, err := loaded.Transform(namesCorpus)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, e.Info(), loaded.Info())
	assert.Equal(t, e.TopPhrases(0), loaded.TopPhrases(0))
}

func TestMarshalBinary_Deterministic(t *testing.T) {
	e := fittedNamesEngine(t)
	first, err := e.MarshalBinary()
	require.NoError(t, err)

	var clone Engine
	clone.logger = quietLogger()
	require.NoError(t, clone.UnmarshalBinary(first))
	second, err := clone.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	sum, err := e.Checksum()
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian.Uint32(first[len(first)-4:]), sum)
}

func TestWriteTo_HeaderLayout(t *testing.T) {
	e := fittedNamesEngine(t)
	var buf bytes.Buffer
	n, err := e.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	data := buf.Bytes()
	assert.Equal(t, MagicBytes, binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, FormatVersion, binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, math.Float32bits(1e-3), binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, uint64(1000), binary.LittleEndian.Uint64(data[20:28]))
}

func TestReadFrom_KeepsRuntimeSettings(t *testing.T) {
	data, err := fittedNamesEngine(t).MarshalBinary()
	require.NoError(t, err)

	cfg := config.DefaultModelConfig()
	cfg.Workers = 3
	cfg.Seed = 99
	cfg.NumFeatures = 5
	e := newTestEngine(t, cfg)
	_, err = e.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)

	got := e.Config()
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, int64(99), got.Seed)
	assert.Equal(t, 1000, got.NumFeatures)
}

func TestUnmarshalBinary_Rejects(t *testing.T) {
	good, err := fittedNamesEngine(t).MarshalBinary()
	require.NoError(t, err)

	mutate := func(f func([]byte) []byte) []byte {
		return f(bytes.Clone(good))
	}
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", mutate(func(b []byte) []byte { b[0] ^= 0xff; return b }), apperrors.ErrCorruptModel},
		{"future version", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[4:8], 2)
			return b
		}), apperrors.ErrUnsupportedVersion},
		{"flipped weight", mutate(func(b []byte) []byte { b[len(b)-5] ^= 0x01; return b }), apperrors.ErrCorruptModel},
		{"truncated", good[:len(good)/2], apperrors.ErrCorruptModel},
		{"missing checksum", good[:len(good)-4], apperrors.ErrCorruptModel},
		{"trailing bytes", append(bytes.Clone(good), 0), apperrors.ErrCorruptModel},
		{"empty", nil, apperrors.ErrCorruptModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := fittedNamesEngine(t)
			before, err := e.Checksum()
			require.NoError(t, err)

			err = e.UnmarshalBinary(tt.data)
			assert.ErrorIs(t, err, tt.want)

			after, err := e.Checksum()
			require.NoError(t, err)
			assert.Equal(t, before, after, "engine must be unchanged after a failed decode")
		})
	}
}

func TestLoad_MissingFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.vhash")
	_, err := Load(path, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSave_UnwritableDirectoryNamesPath(t *testing.T) {
	e := fittedNamesEngine(t)
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "model.vhash")
	err := e.Save(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestSave_NotFitted(t *testing.T) {
	e := newTestEngine(t, config.DefaultModelConfig())
	assert.ErrorIs(t, e.Save(filepath.Join(t.TempDir(), "m.vhash")), apperrors.ErrNotFitted)
	_, err := e.MarshalBinary()
	assert.ErrorIs(t, err, apperrors.ErrNotFitted)
	_, err = e.Checksum()
	assert.ErrorIs(t, err, apperrors.ErrNotFitted)
}

func TestSaveLoad_EmptyTable(t *testing.T) {
	cfg := unigramConfig()
	cfg.MinPhraseOccurrence = 5
	e := newTestEngine(t, cfg)
	_, err := e.Fit(namesCorpus, namesLabels)
	require.NoError(t, err)
	require.Zero(t, e.Info().TableSize)

	data, err := e.MarshalBinary()
	require.NoError(t, err)
	loaded := newTestEngine(t, config.DefaultModelConfig())
	require.NoError(t, loaded.UnmarshalBinary(data))

	out, err := loaded.Transform([]string{"hi"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 0, 0}}, out)
}
