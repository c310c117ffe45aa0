package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
)

// FetchRepo implements storage.FetchCache on the user_data_fetch table.
type FetchRepo struct {
	db *DB
}

var _ storage.FetchCache = (*FetchRepo)(nil)

func NewFetchRepo(db *DB) *FetchRepo {
	return &FetchRepo{db: db}
}

type fetchRow struct {
	Address   string    `db:"address"`
	FetchedAt time.Time `db:"fetched_at"`
}

func (r *FetchRepo) LastFetch(ctx context.Context, address string) (time.Time, bool, error) {
	var at time.Time
	err := r.db.GetContext(ctx, &at,
		`SELECT fetched_at FROM user_data_fetch WHERE address = $1`,
		storage.NormalizeAddress(address),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get fetch time: %w", err)
	}
	return at, true, nil
}

// LastFetchMany returns the recorded times of every known address in one query.
func (r *FetchRepo) LastFetchMany(ctx context.Context, addresses []string) (map[string]time.Time, error) {
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = storage.NormalizeAddress(a)
	}
	var rows []fetchRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT address, fetched_at FROM user_data_fetch WHERE address = ANY($1)`,
		pq.Array(keys),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch times: %w", err)
	}
	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.Address] = row.FetchedAt
	}
	return out, nil
}

func (r *FetchRepo) MarkFetched(ctx context.Context, address string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_data_fetch (address, fetched_at) VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET fetched_at = EXCLUDED.fetched_at`,
		storage.NormalizeAddress(address), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save fetch time: %w", err)
	}
	return nil
}

func (r *FetchRepo) Forget(ctx context.Context, address string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_data_fetch WHERE address = $1`,
		storage.NormalizeAddress(address),
	)
	if err != nil {
		return fmt.Errorf("failed to delete fetch time: %w", err)
	}
	return nil
}

func (r *FetchRepo) Close() error {
	return r.db.Close()
}
