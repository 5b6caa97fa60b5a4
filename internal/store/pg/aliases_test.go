package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"opertrack.org/internal/ops"
)

func TestUpsertAliasIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	// Same pair twice: both executions hit the on-conflict upsert, the
	// second simply overwrites master and timestamp.
	for i := 0; i < 2; i++ {
		mock.ExpectExec("(?s)insert into embarcador_aliases.*on conflict \\(alias\\) do update").
			WithArgs("ACME LTDA", "ACME").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	for i := 0; i < 2; i++ {
		if err := store.UpsertAlias(context.Background(), "ACME LTDA", "ACME"); err != nil {
			t.Fatalf("UpsertAlias #%d: %v", i+1, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertAliasRejectsBlank(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	if err := store.UpsertAlias(context.Background(), " ", "ACME"); !errors.Is(err, ops.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := store.UpsertAlias(context.Background(), "ACME LTDA", ""); !errors.Is(err, ops.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListAliasesOrdered(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	now := time.Now()
	mock.ExpectQuery("select alias, master, updated_at from embarcador_aliases order by alias asc").
		WillReturnRows(sqlmock.NewRows([]string{"alias", "master", "updated_at"}).
			AddRow("ACME LTDA", "ACME", now).
			AddRow("ACME SA", "ACME", now))

	aliases, err := store.ListAliases(context.Background())
	if err != nil {
		t.Fatalf("ListAliases: %v", err)
	}
	if len(aliases) != 2 || aliases[0].Alias != "ACME LTDA" || aliases[1].Master != "ACME" {
		t.Fatalf("unexpected aliases: %+v", aliases)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
