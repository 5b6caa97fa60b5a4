package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"opertrack.org/internal/ops"
)

func operationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking", "containers", "embarcador", "tracking_code",
		"data_programada", "inicio_real", "fim_real", "tempo_atraso",
		"atraso_hhmm", "justificativa", "motorista", "placa_cavalo",
		"placa_carreta", "numero_programa", "transportadora", "created_at",
	})
}

func TestListPaginationMath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	now := time.Now()
	mock.ExpectQuery("select count\\(\\*\\) from operacoes o").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))
	mock.ExpectQuery("order by o.data_programada desc, o.id desc limit").
		WithArgs(20, 20).
		WillReturnRows(operationRows().
			AddRow(21, "BK-21", "CONT1", "ACME", "OP-1", now, nil, nil, 90,
				"", "TRANSITO", "", "", "", "", "", now))

	items, page, err := store.List(context.Background(), ops.ListFilter{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalItems != 45 || page.TotalPages != 3 || page.CurrentPage != 2 || page.Limit != 20 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
	if len(items) != 1 || items[0].Booking != "BK-21" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].AtrasoMin() != 90 {
		t.Fatalf("unexpected delay: %d", items[0].AtrasoMin())
	}
}

func TestListBeyondLastPageIsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	mock.ExpectQuery("select count\\(\\*\\) from operacoes o").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("order by o.data_programada desc, o.id desc limit").
		WithArgs(20, 180).
		WillReturnRows(operationRows())

	items, page, err := store.List(context.Background(), ops.ListFilter{Page: 10, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty page, got %d items", len(items))
	}
	if page.TotalPages != 1 {
		t.Fatalf("unexpected total pages: %d", page.TotalPages)
	}
}

func TestListFiltersAreConjunctive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	mock.ExpectQuery(`(?s)select count\(\*\) from operacoes o.+where o\.booking ilike \$1 and o\.data_programada::date = \$2::date`).
		WithArgs("%BK-1%", "2026-08-15").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("order by o.data_programada desc, o.id desc limit").
		WithArgs("%BK-1%", "2026-08-15", 20, 0).
		WillReturnRows(operationRows())

	items, _, err := store.List(context.Background(), ops.ListFilter{
		Page: 1, Limit: 20, Booking: "BK-1", Date: "2026-08-15",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no matches, got %d", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A shipper whose rows were uploaded under alias variants must see the
// same set in the listing as in the KPI aggregation, so the scoped
// listing has to resolve names through the alias table too.
func TestListScopedByEmbarcadorResolvesAliases(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)select count\(\*\) from operacoes o left join embarcador_aliases a.+upper\(coalesce\(a\.master, o\.embarcador\)\) = upper\(\$1\)`).
		WithArgs("ACME").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`(?s)from operacoes o left join embarcador_aliases a.+upper\(coalesce\(a\.master, o\.embarcador\)\) = upper\(\$1\).+order by o\.data_programada desc`).
		WithArgs("ACME", 20, 0).
		WillReturnRows(operationRows().
			AddRow(1, "BK-1", "CONT1", "ACME LTDA", "OP-1", now, nil, nil, nil,
				"", "", "", "", "", "", "", now).
			AddRow(2, "BK-2", "CONT2", "ACME", "OP-2", now, nil, nil, nil,
				"", "", "", "", "", "", "", now))

	items, page, err := store.List(context.Background(), ops.ListFilter{
		Page: 1, Limit: 20, Embarcador: "ACME",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalItems != 2 || len(items) != 2 {
		t.Fatalf("scoped listing lost alias variants: total=%d items=%d", page.TotalItems, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkInsertAssignsTrackingCodes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec("insert into operacoes").
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()

	n, err := store.BulkInsert(context.Background(), []ops.Operation{
		{Booking: "BK-1", Embarcador: "ACME", DataProgramada: time.Now()},
		{Booking: "BK-2", Embarcador: "ACME", DataProgramada: time.Now(), TrackingCode: "OP-EXISTING"},
	})
	if err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserts, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkInsertRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("insert into operacoes").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err = store.BulkInsert(context.Background(), []ops.Operation{{Booking: "BK-1"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByTrackingCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	mock.ExpectQuery("where o.tracking_code").
		WithArgs("OP-GHOST").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.FindByTrackingCode(context.Background(), "OP-GHOST"); !errors.Is(err, ops.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAllReportsCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db)

	mock.ExpectExec("delete from operacoes").
		WillReturnResult(sqlmock.NewResult(0, 128))

	n, err := store.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n != 128 {
		t.Fatalf("expected 128, got %d", n)
	}
}
