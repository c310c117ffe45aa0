package postgres

import (
	"context"
	"os"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("INTMAX_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping postgres test. Set INTMAX_TEST_DATABASE_URL to run.")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE user_data_fetch`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func TestFetchRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFetchRepo(db)
	defer repo.Close()
	ctx := context.Background()

	if _, ok, err := repo.LastFetch(ctx, "0xABC"); err != nil || ok {
		t.Fatalf("LastFetch on empty table = %v, %v", ok, err)
	}

	first := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
	second := first.Add(30 * time.Second)
	if err := repo.MarkFetched(ctx, "0xABC", first); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}
	if err := repo.MarkFetched(ctx, "0xabc", second); err != nil {
		t.Fatalf("MarkFetched upsert: %v", err)
	}
	_ = repo.MarkFetched(ctx, "0xdef", first)

	got, ok, err := repo.LastFetch(ctx, "0xAbc")
	if err != nil || !ok || !got.Equal(second) {
		t.Errorf("LastFetch = %v, %v, %v; want %v", got, ok, err, second)
	}

	many, err := repo.LastFetchMany(ctx, []string{"0xABC", "0xDEF", "0x999"})
	if err != nil {
		t.Fatalf("LastFetchMany: %v", err)
	}
	if len(many) != 2 || !many["0xdef"].Equal(first) {
		t.Errorf("LastFetchMany = %v", many)
	}

	if err := repo.Forget(ctx, "0xabc"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, _ := repo.LastFetch(ctx, "0xabc"); ok {
		t.Error("entry survived Forget")
	}
}
