package corpus

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/postgres"
)

// PostgresSource reads a corpus with a query returning (text, label) rows.
// Labels of any column type are read as text.
type PostgresSource struct {
	Client *postgres.Client
	Query  string
}

func (s PostgresSource) Load(ctx context.Context) (*Corpus, error) {
	var c *Corpus
	err := s.Client.ReadOnly(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.Query)
		if err != nil {
			return fmt.Errorf("querying corpus: %w", err)
		}
		defer rows.Close()
		c, err = scanCorpus(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCorpus(rows rowScanner) (*Corpus, error) {
	c := &Corpus{}
	for row := 1; rows.Next(); row++ {
		var text, label sql.NullString
		if err := rows.Scan(&text, &label); err != nil {
			return nil, fmt.Errorf("scanning corpus row %d: %w", row, err)
		}
		if !label.Valid {
			return nil, apperrors.Invalidf("corpus row %d has a NULL label", row)
		}
		c.add(text.String, label.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpus rows: %w", err)
	}
	return c, nil
}
