package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/queryport/queryport/compile"
	"github.com/queryport/queryport/query"
	"github.com/queryport/queryport/value"
)

func TestRowGet(t *testing.T) {
	row := Row{
		{Name: "id", Value: value.Int64(1)},
		{Name: "title", Value: value.String("A")},
	}

	v, ok := row.Get("title")
	if !ok || !v.Equal(value.String("A")) {
		t.Errorf("got %v, %v", v, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Error("expected missing column")
	}
	cols := row.Columns()
	if len(cols) != 2 || cols[0] != "id" || cols[1] != "title" {
		t.Errorf("got %v", cols)
	}
}

func TestRowEqual(t *testing.T) {
	a := Row{{Name: "id", Value: value.Int64(1)}}
	b := Row{{Name: "id", Value: value.Int64(1)}}
	c := Row{{Name: "id", Value: value.Int64(2)}}
	d := Row{{Name: "key", Value: value.Int64(1)}}

	if !a.Equal(b) {
		t.Error("equal rows should compare equal")
	}
	if a.Equal(c) {
		t.Error("different values should not compare equal")
	}
	if a.Equal(d) {
		t.Error("different column names should not compare equal")
	}
	if a.Equal(Row{}) {
		t.Error("different lengths should not compare equal")
	}
}

func TestDynamicValueClassification(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   any
		want value.Value
	}{
		{nil, value.Null()},
		{true, value.Bool(true)},
		{int64(5), value.Int64(5)},
		{int32(5), value.Int64(5)},
		{uint64(5), value.Uint64(5)},
		{1.5, value.Float64(1.5)},
		{"x", value.String("x")},
		{[]byte("x"), value.String("x")},
		{now, value.Time(now)},
	}
	for _, tc := range cases {
		got, err := dynamicValue(tc.in)
		if err != nil {
			t.Errorf("%T: unexpected error %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("%T: got %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := dynamicValue(struct{}{}); err == nil {
		t.Error("expected error for unmapped type")
	}
}

func TestUpsertFirstLogsChangedFlag(t *testing.T) {
	db, mock := mockDB(t, compile.SQLite)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cols := []*sqlmock.Column{
		sqlmock.NewColumn("id").OfType("BIGINT", int64(0)),
		sqlmock.NewColumn("title").OfType("TEXT", ""),
	}
	// Debug level enables the pre-image fetch.
	mock.ExpectQuery(`SELECT * FROM tracks  WHERE ("id" = ?)  LIMIT 1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(cols...).AddRow(int64(1), "Old"))
	mock.ExpectQuery(`UPDATE tracks SET "title"=? WHERE ("id" = ?) AND rowid IN (SELECT rowid FROM tracks WHERE ("id" = ?) LIMIT 1) RETURNING *`).
		WithArgs("A", int64(1), int64(1)).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(cols...).AddRow(int64(1), "A"))

	row, err := upsertFirst(context.Background(), db, log, query.Upsert("tracks").
		Value("title", "A").
		Where(query.Eq("id", 1)))
	require.NoError(t, err)
	title, _ := row.Get("title")
	require.True(t, title.Equal(value.String("A")))
	require.NoError(t, mock.ExpectationsWereMet())

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		require.NoError(t, json.Unmarshal(line, &e))
		if e["msg"] == "upsert updated row" {
			entry = e
		}
	}
	require.NotNil(t, entry)
	require.Equal(t, true, entry["changed"])
}
