package table

import (
	"context"
	"fmt"
)

// RowQuerier is the slice of database.PostgresService the postgres source
// needs.
type RowQuerier interface {
	QueryRows(ctx context.Context, query string) ([][]string, error)
}

type postgresSource struct {
	db    RowQuerier
	query string
}

func newPostgresSource(db RowQuerier, query string) *postgresSource {
	return &postgresSource{db: db, query: query}
}

func (s *postgresSource) Name() string { return "postgres" }

func (s *postgresSource) Remote() bool { return true }

func (s *postgresSource) Rows(ctx context.Context) ([]Row, error) {
	cells, err := s.db.QueryRows(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("postgres source: %w", err)
	}
	return numberRows(cells), nil
}
