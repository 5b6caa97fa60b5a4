package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opertrack.org/internal/ops"
)

// aliasJoin resolves raw shipper names through the alias table; rows
// without an alias keep their stored name.
const aliasJoin = ` left join embarcador_aliases a on upper(a.alias) = upper(o.embarcador)`

const canonicalClientSQL = `coalesce(a.master, o.embarcador)`

// KPIs aggregates the window into the dashboard headline numbers.
// onTime + late == total always holds; an empty window yields zeroes.
func (s *Store) KPIs(ctx context.Context, w ops.Window) (ops.KPISummary, error) {
	where, args := windowConditions(w)
	q := `select count(*), count(*) filter (where ` + delayMinutesSQL + ` > 0)
		from operacoes o` + aliasJoin + where

	var total, late int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&total, &late); err != nil {
		return ops.KPISummary{}, err
	}
	return ops.KPISummary{
		Total:   total,
		OnTime:  total - late,
		Late:    late,
		LatePct: ops.LatePct(late, total),
	}, nil
}

// TopOffenders ranks delay justifications by count. Ties break on reason
// ascending so the ordering is stable across runs.
func (s *Store) TopOffenders(ctx context.Context, w ops.Window, n int) ([]ops.ReasonCount, error) {
	if n <= 0 {
		n = 5
	}
	where, args := windowConditions(w)
	late := fmt.Sprintf(" and %s > 0", delayMinutesSQL)
	if where == "" {
		late = fmt.Sprintf(" where %s > 0", delayMinutesSQL)
	}
	args = append(args, n)
	q := `select coalesce(nullif(trim(o.justificativa), ''), 'SEM JUSTIFICATIVA'), count(*)
		from operacoes o` + aliasJoin + where + late +
		fmt.Sprintf(` group by 1 order by 2 desc, 1 asc limit $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ops.ReasonCount
	for rows.Next() {
		var rc ops.ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// TopLateClients ranks canonical shippers by late-operation count, with
// the same count-desc / name-asc ordering discipline as TopOffenders.
func (s *Store) TopLateClients(ctx context.Context, w ops.Window, n int) ([]ops.ClientCount, error) {
	if n <= 0 {
		n = 5
	}
	where, args := windowConditions(w)
	late := fmt.Sprintf(" and %s > 0", delayMinutesSQL)
	if where == "" {
		late = fmt.Sprintf(" where %s > 0", delayMinutesSQL)
	}
	args = append(args, n)
	q := `select ` + canonicalClientSQL + `, count(*)
		from operacoes o` + aliasJoin + where + late +
		fmt.Sprintf(` group by 1 order by 2 desc, 1 asc limit $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ops.ClientCount
	for rows.Next() {
		var cc ops.ClientCount
		if err := rows.Scan(&cc.Client, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// OperationsInWindow returns every operation in the window ordered by
// schedule; the daily PDF consumes this directly.
func (s *Store) OperationsInWindow(ctx context.Context, w ops.Window) ([]ops.Operation, error) {
	where, args := windowConditions(w)
	q := `select ` + operationColumns + ` from operacoes o` + aliasJoin + where +
		` order by o.data_programada asc, o.id asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ops.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

func windowConditions(w ops.Window) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !w.Start.IsZero() {
		args = append(args, w.Start)
		conds = append(conds, fmt.Sprintf(`o.data_programada >= $%d`, len(args)))
	}
	if !w.End.IsZero() {
		// End is inclusive at day granularity: callers pass end-of-day.
		args = append(args, w.End)
		conds = append(conds, fmt.Sprintf(`o.data_programada <= $%d`, len(args)))
	}
	if e := strings.TrimSpace(w.Embarcador); e != "" {
		args = append(args, e)
		conds = append(conds, fmt.Sprintf(`upper(%s) = upper($%d)`, canonicalClientSQL, len(args)))
	}
	if b := strings.TrimSpace(w.Booking); b != "" {
		args = append(args, "%"+b+"%")
		conds = append(conds, fmt.Sprintf(`o.booking ilike $%d`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

// DayWindow builds an inclusive single-day window.
func DayWindow(day time.Time, embarcador string) ops.Window {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return ops.Window{
		Start:      start,
		End:        start.Add(24*time.Hour - time.Nanosecond),
		Embarcador: embarcador,
	}
}
