package compile

import (
	"testing"

	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

func TestMySQL_SelectColumnsFilterLimit(t *testing.T) {
	stmt := query.Select("tracks").
		WithColumns("id", "title").
		Where(query.Eq("artist_id", 5)).
		WithLimit(1)

	sql, params, err := NewCompiler(MySQL).CompileSelect(stmt)
	if err != nil {
		t.Fatalf("CompileSelect failed: %v", err)
	}

	// MySQL uses backticks and ? placeholders
	expected := "SELECT `id`, `title` FROM tracks  WHERE (`artist_id` = ?)  LIMIT 1"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
	if len(params) != 1 || params[0] != int64(5) {
		t.Errorf("expected params [5], got %v", params)
	}
}

func TestMySQL_InsertNoReturning(t *testing.T) {
	stmt := query.Insert("tracks").
		Value("title", "Blue").
		Value("created_at", value.Now())

	sql, params, err := NewCompiler(MySQL).CompileInsert(stmt)
	if err != nil {
		t.Fatalf("CompileInsert failed: %v", err)
	}

	expected := "INSERT INTO tracks (`title`, `created_at`) VALUES (?, NOW())"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
	if len(params) != 1 {
		t.Errorf("expected 1 param, got %v", params)
	}
}

func TestMySQL_UpdateWithLimitDerivedTable(t *testing.T) {
	stmt := query.Update("tracks").
		Value("title", "New").
		Where(query.Eq("id", 7)).
		WithLimit(1)

	sql, params, err := NewCompiler(MySQL).CompileUpdate(stmt)
	if err != nil {
		t.Fatalf("CompileUpdate failed: %v", err)
	}

	// The derived table avoids ER_UPDATE_TABLE_USED on self-referencing
	// subqueries.
	expected := "UPDATE tracks SET `title`=? WHERE (`id` = ?) AND id IN (SELECT * FROM (SELECT id FROM tracks WHERE (`id` = ?) LIMIT 1) AS limited)"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
	if len(params) != 3 || params[0] != "New" || params[1] != int64(7) || params[2] != int64(7) {
		t.Errorf("expected params [New 7 7], got %v", params)
	}
}

func TestMySQL_DeleteWithLimit(t *testing.T) {
	stmt := query.Delete("tracks").
		Where(query.Eq("artist_id", 5)).
		WithLimit(2)

	sql, params, err := NewCompiler(MySQL).CompileDelete(stmt)
	if err != nil {
		t.Fatalf("CompileDelete failed: %v", err)
	}

	expected := "DELETE FROM tracks WHERE (`artist_id` = ?) AND id IN (SELECT * FROM (SELECT id FROM tracks WHERE (`artist_id` = ?) LIMIT 2) AS limited)"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
	if len(params) != 2 {
		t.Errorf("expected 2 params, got %v", params)
	}
}

func TestMySQL_NowAdd(t *testing.T) {
	stmt := query.Update("sessions").
		Value("expires_at", value.NowAdd("1 DAY")).
		Where(query.Eq("id", 3))

	sql, _, err := NewCompiler(MySQL).CompileUpdate(stmt)
	if err != nil {
		t.Fatalf("CompileUpdate failed: %v", err)
	}

	expected := "UPDATE sessions SET `expires_at`=DATE_ADD(NOW(), INTERVAL 1 DAY) WHERE (`id` = ?)"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
}

func TestMySQL_UpsertMulti(t *testing.T) {
	stmt := query.UpsertMulti("tracks").
		WithUnique("artist_id", "title").
		Row(query.Set("artist_id", 1), query.Set("title", "A"), query.Set("plays", 10)).
		Row(query.Set("artist_id", 1), query.Set("title", "B"), query.Set("plays", 20))

	sql, params, err := NewCompiler(MySQL).CompileUpsertMulti(stmt)
	if err != nil {
		t.Fatalf("CompileUpsertMulti failed: %v", err)
	}

	expected := "INSERT INTO tracks (`artist_id`, `title`, `plays`) VALUES (?, ?, ?), (?, ?, ?) ON DUPLICATE KEY UPDATE `plays`=VALUES(`plays`)"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
	if len(params) != 6 {
		t.Errorf("expected 6 params, got %v", params)
	}
}

func TestMySQL_UpsertMultiAllUnique(t *testing.T) {
	stmt := query.UpsertMulti("members").
		WithUnique("team_id", "user_id").
		Row(query.Set("team_id", 1), query.Set("user_id", 2))

	sql, _, err := NewCompiler(MySQL).CompileUpsertMulti(stmt)
	if err != nil {
		t.Fatalf("CompileUpsertMulti failed: %v", err)
	}

	// Self-assignment keeps the statement valid with nothing to update.
	expected := "INSERT INTO members (`team_id`, `user_id`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `team_id`=`team_id`"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
}

func TestMySQL_NullEquality(t *testing.T) {
	stmt := query.Select("tracks").Where(query.Eq("deleted_at", nil))

	sql, params, err := NewCompiler(MySQL).CompileSelect(stmt)
	if err != nil {
		t.Fatalf("CompileSelect failed: %v", err)
	}

	expected := "SELECT * FROM tracks  WHERE (`deleted_at` IS NULL)"
	if sql != expected {
		t.Errorf("expected SQL:\n%s\ngot:\n%s", expected, sql)
	}
	if len(params) != 0 {
		t.Errorf("expected no params, got %v", params)
	}
}
