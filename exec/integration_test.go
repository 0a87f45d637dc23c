//go:build integration

package exec

import (
	"context"
	"os"
	"testing"

	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

// Server-backed roundtrips. Point the env vars at scratch databases:
//
//	QUERYPORT_POSTGRES_URL=postgres://postgres@localhost:5432/queryport_test
//	QUERYPORT_MYSQL_URL=mysql://root@localhost:3306/queryport_test
//
// Each dialect test is skipped when its URL is unset.

func openFromEnv(t *testing.T, envVar string) Database {
	t.Helper()
	url := os.Getenv(envVar)
	if url == "" {
		t.Skipf("%s not set", envVar)
	}
	db, err := Open(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("open %s: %v", url, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func resetSchema(t *testing.T, db Database, idColumn string) {
	t.Helper()
	ctx := context.Background()
	exec := func(sql string) {
		var err error
		switch d := db.(type) {
		case *PgxDatabase:
			_, err = d.pool.Exec(ctx, sql)
		case *SQLDatabase:
			_, err = d.db.ExecContext(ctx, sql)
		}
		if err != nil {
			t.Fatalf("schema statement failed: %v", err)
		}
	}
	exec("DROP TABLE IF EXISTS tracks")
	exec("CREATE TABLE tracks (" + idColumn + ", title VARCHAR(255), plays BIGINT, UNIQUE (title))")
}

func roundtrip(t *testing.T, db Database) {
	ctx := context.Background()

	row, err := db.ExecInsert(ctx, query.Insert("tracks").
		Value("title", "Blue").
		Value("plays", 3))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	title, _ := row.Get("title")
	if !title.Equal(value.String("Blue")) {
		t.Errorf("got title %v", title)
	}

	updated, err := db.ExecUpdate(ctx, query.Update("tracks").
		Value("plays", 4).
		Where(query.Eq("title", "Blue")).
		WithLimit(1))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("expected 1 updated row, got %d", len(updated))
	}

	rows, err := db.ExecUpsertMulti(ctx, query.UpsertMulti("tracks").
		WithUnique("title").
		Row(query.Set("title", "Blue"), query.Set("plays", 10)).
		Row(query.Set("title", "Green"), query.Set("plays", 1)))
	if err != nil {
		t.Fatalf("upsert multi: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	deleted, err := db.ExecDelete(ctx, query.Delete("tracks").
		Where(query.Eq("title", "Green")))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted) != 1 {
		t.Fatalf("expected 1 deleted row, got %d", len(deleted))
	}

	all, err := db.Query(ctx, query.Select("tracks"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 remaining row, got %d", len(all))
	}
}

func TestPostgresRoundtrip(t *testing.T) {
	db := openFromEnv(t, "QUERYPORT_POSTGRES_URL")
	resetSchema(t, db, "id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY")
	roundtrip(t, db)
}

func TestMySQLRoundtrip(t *testing.T) {
	db := openFromEnv(t, "QUERYPORT_MYSQL_URL")
	resetSchema(t, db, "id BIGINT AUTO_INCREMENT PRIMARY KEY")
	roundtrip(t, db)
}
