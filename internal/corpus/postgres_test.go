package corpus

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

type fakeRows struct {
	rows    [][2]sql.NullString
	pos     int
	scanErr error
	err     error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.pos-1]
	*dest[0].(*sql.NullString) = row[0]
	*dest[1].(*sql.NullString) = row[1]
	return nil
}

func (f *fakeRows) Err() error { return f.err }

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestScanCorpus(t *testing.T) {
	rows := &fakeRows{rows: [][2]sql.NullString{
		{str("hi there"), str("a")},
		{{}, str("b")},
	}}
	c, err := scanCorpus(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi there", ""}, c.Docs)
	assert.Equal(t, []string{"a", "b"}, c.Labels)
}

func TestScanCorpus_Errors(t *testing.T) {
	_, err := scanCorpus(&fakeRows{rows: [][2]sql.NullString{{str("x"), {}}}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	boom := errors.New("conn reset")
	_, err = scanCorpus(&fakeRows{rows: [][2]sql.NullString{{str("x"), str("y")}}, scanErr: boom})
	assert.ErrorIs(t, err, boom)

	_, err = scanCorpus(&fakeRows{err: boom})
	assert.ErrorIs(t, err, boom)
}
