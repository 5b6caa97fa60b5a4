package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"opertrack.org/internal/ids"
	"opertrack.org/internal/ops"
)

const operationColumns = `o.id, o.booking, o.containers, o.embarcador, o.tracking_code,
	o.data_programada, o.inicio_real, o.fim_real, o.tempo_atraso,
	coalesce(o.atraso_hhmm, ''), coalesce(o.justificativa, ''),
	coalesce(o.motorista, ''), coalesce(o.placa_cavalo, ''),
	coalesce(o.placa_carreta, ''), coalesce(o.numero_programa, ''),
	coalesce(o.transportadora, ''), o.created_at`

// BulkInsert loads uploaded operations inside a single transaction.
// Rows without a tracking code get one assigned before insert.
func (s *Store) BulkInsert(ctx context.Context, rows []ops.Operation) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `insert into operacoes
		(booking, containers, embarcador, tracking_code, data_programada,
		 inicio_real, fim_real, tempo_atraso, atraso_hhmm, justificativa,
		 motorista, placa_cavalo, placa_carreta, numero_programa, transportadora)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	inserted := 0
	for _, row := range rows {
		code := row.TrackingCode
		if strings.TrimSpace(code) == "" {
			code = ids.TrackingCode()
		}
		if _, err := tx.ExecContext(ctx, q,
			row.Booking, row.Containers, row.Embarcador, code, row.DataProgramada,
			row.InicioReal, row.FimReal, row.TempoAtraso, nullEmpty(row.AtrasoHHMM),
			nullEmpty(row.Justificativa), nullEmpty(row.Motorista),
			nullEmpty(row.PlacaCavalo), nullEmpty(row.PlacaCarreta),
			nullEmpty(row.NumeroPrograma), nullEmpty(row.Transportadora),
		); err != nil {
			return 0, fmt.Errorf("insert operation %s: %w", row.Booking, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// List returns one page of operations plus pagination metadata. Filters
// are conjunctive; a page past the end yields an empty slice, not an error.
func (s *Store) List(ctx context.Context, f ops.ListFilter) ([]ops.Operation, ops.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 20
	}

	where, args := listConditions(f)

	var total int
	countQ := `select count(*) from operacoes o` + aliasJoin + where
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, ops.Pagination{}, err
	}

	totalPages := (total + f.Limit - 1) / f.Limit

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	q := `select ` + operationColumns + ` from operacoes o` + aliasJoin + where +
		fmt.Sprintf(` order by o.data_programada desc, o.id desc limit $%d offset $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ops.Pagination{}, err
	}
	defer rows.Close()

	items := make([]ops.Operation, 0, f.Limit)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, ops.Pagination{}, err
		}
		items = append(items, op)
	}
	if err := rows.Err(); err != nil {
		return nil, ops.Pagination{}, err
	}

	return items, ops.Pagination{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: f.Page,
		Limit:       f.Limit,
	}, nil
}

// DeleteAll wipes every operation. Admin-only at the HTTP layer.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from operacoes`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindByTrackingCode backs the public tracking lookup.
func (s *Store) FindByTrackingCode(ctx context.Context, code string) (ops.Operation, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+operationColumns+` from operacoes o where o.tracking_code = $1`, code)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ops.Operation{}, ops.ErrNotFound
	}
	if err != nil {
		return ops.Operation{}, err
	}
	return op, nil
}

// DelaySources returns the active schema mapping used to translate legacy
// spreadsheet headers into the canonical delay fields.
func (s *Store) DelaySources(ctx context.Context) ([]ops.DelaySource, error) {
	rows, err := s.db.QueryContext(ctx,
		`select column_name, kind, active from delay_source_columns where active order by column_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ops.DelaySource
	for rows.Next() {
		var d ops.DelaySource
		if err := rows.Scan(&d.Column, &d.Kind, &d.Active); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (ops.Operation, error) {
	var (
		op     ops.Operation
		atraso sql.NullInt64
	)
	err := row.Scan(&op.ID, &op.Booking, &op.Containers, &op.Embarcador,
		&op.TrackingCode, &op.DataProgramada, &op.InicioReal, &op.FimReal,
		&atraso, &op.AtrasoHHMM, &op.Justificativa, &op.Motorista,
		&op.PlacaCavalo, &op.PlacaCarreta, &op.NumeroPrograma,
		&op.Transportadora, &op.CreatedAt)
	if err != nil {
		return ops.Operation{}, err
	}
	if atraso.Valid {
		v := int(atraso.Int64)
		op.TempoAtraso = &v
	}
	return op, nil
}

func listConditions(f ops.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if b := strings.TrimSpace(f.Booking); b != "" {
		args = append(args, "%"+b+"%")
		conds = append(conds, fmt.Sprintf(`o.booking ilike $%d`, len(args)))
	}
	if d := strings.TrimSpace(f.Date); d != "" {
		args = append(args, d)
		conds = append(conds, fmt.Sprintf(`o.data_programada::date = $%d::date`, len(args)))
	}
	if e := strings.TrimSpace(f.Embarcador); e != "" {
		// same canonical shipper resolution as the aggregations, so the
		// listing and the KPI total never disagree for scoped users
		args = append(args, e)
		conds = append(conds, fmt.Sprintf(`upper(%s) = upper($%d)`, canonicalClientSQL, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

func nullEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
