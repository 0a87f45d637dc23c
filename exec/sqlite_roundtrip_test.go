package exec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/queryport/queryport/dburl"
	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

// openTestSQLite opens a fresh file-backed database through the URL path.
func openTestSQLite(t *testing.T) *SQLDatabase {
	t.Helper()
	ctx := context.Background()
	url := dburl.BuildSQLiteURL(filepath.Join(t.TempDir(), "roundtrip.db"))
	db, err := openSQLite(ctx, url, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ddl := `CREATE TABLE tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		plays INTEGER,
		created_at TEXT
	);
	CREATE UNIQUE INDEX tracks_title ON tracks(title);`
	if _, err := db.db.ExecContext(ctx, ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestSQLiteRoundtripInsertQuery(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	row, err := db.ExecInsert(ctx, query.Insert("tracks").
		Value("title", "Blue").
		Value("plays", 3).
		Value("created_at", value.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	title, _ := row.Get("title")
	if !title.Equal(value.String("Blue")) {
		t.Errorf("got title %v", title)
	}
	created, ok := row.Get("created_at")
	if !ok || created.IsNull() {
		t.Errorf("expected server timestamp, got %v", created)
	}

	rows, err := db.Query(ctx, query.Select("tracks").Where(query.Eq("plays", 3)))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestSQLiteRoundtripUpdateWithLimit(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	for _, title := range []string{"A", "B", "C"} {
		if _, err := db.ExecInsert(ctx, query.Insert("tracks").
			Value("title", title).
			Value("plays", 0)); err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}

	updated, err := db.ExecUpdate(ctx, query.Update("tracks").
		Value("plays", 1).
		Where(query.Eq("plays", 0)).
		WithLimit(2))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated rows, got %d", len(updated))
	}

	rest, err := db.Query(ctx, query.Select("tracks").Where(query.Eq("plays", 0)))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1 untouched row, got %d", len(rest))
	}
}

func TestSQLiteRoundtripUpsertMulti(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	stmt := query.UpsertMulti("tracks").
		WithUnique("title").
		Row(query.Set("title", "A"), query.Set("plays", 1)).
		Row(query.Set("title", "B"), query.Set("plays", 2))
	rows, err := db.ExecUpsertMulti(ctx, stmt)
	if err != nil {
		t.Fatalf("upsert multi: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	// Conflicting titles update in place.
	again := query.UpsertMulti("tracks").
		WithUnique("title").
		Row(query.Set("title", "A"), query.Set("plays", 10))
	rows, err = db.ExecUpsertMulti(ctx, again)
	if err != nil {
		t.Fatalf("upsert multi conflict: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	plays, _ := rows[0].Get("plays")
	if !plays.Equal(value.Int64(10)) {
		t.Errorf("expected plays 10, got %v", plays)
	}

	all, err := db.Query(ctx, query.Select("tracks"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 rows total, got %d", len(all))
	}
}

func TestSQLiteRoundtripUpdateMulti(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	for _, title := range []string{"A", "B"} {
		if _, err := db.ExecInsert(ctx, query.Insert("tracks").
			Value("title", title).
			Value("plays", 0)); err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}

	rows, err := db.ExecUpdateMulti(ctx, query.UpdateMulti("tracks").
		WithUnique("title").
		Row(query.Set("title", "A"), query.Set("plays", 5)).
		Row(query.Set("title", "B"), query.Set("plays", 6)))
	if err != nil {
		t.Fatalf("update multi: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	plays, _ := rows[0].Get("plays")
	if !plays.Equal(value.Int64(5)) {
		t.Errorf("expected plays 5, got %v", plays)
	}
}

func TestSQLiteRoundtripDeleteReturnsPreImages(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	if _, err := db.ExecInsert(ctx, query.Insert("tracks").
		Value("title", "A").
		Value("plays", 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deleted, err := db.ExecDelete(ctx, query.Delete("tracks").
		Where(query.Eq("title", "A")))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted) != 1 {
		t.Fatalf("expected 1 deleted row, got %d", len(deleted))
	}

	rest, err := db.Query(ctx, query.Select("tracks"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("expected empty table, got %d rows", len(rest))
	}
}

func TestSQLiteRoundtripUpsert(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	// First pass inserts.
	rows, err := db.ExecUpsert(ctx, query.Upsert("tracks").
		Value("title", "A").
		Value("plays", 1).
		Where(query.Eq("title", "A")))
	if err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	// Second pass updates the same row.
	rows, err = db.ExecUpsert(ctx, query.Upsert("tracks").
		Value("title", "A").
		Value("plays", 2).
		Where(query.Eq("title", "A")))
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	plays, _ := rows[0].Get("plays")
	if !plays.Equal(value.Int64(2)) {
		t.Errorf("expected plays 2, got %v", plays)
	}

	all, err := db.Query(ctx, query.Select("tracks"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 row total, got %d", len(all))
	}
}
