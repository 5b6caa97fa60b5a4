package pg

import (
	"context"
	"strings"

	"opertrack.org/internal/ops"
)

// UpsertAlias maps a raw shipper name variant to its canonical form.
// Last write wins; repeating the same pair is a no-op besides the
// timestamp, so the operation is idempotent.
func (s *Store) UpsertAlias(ctx context.Context, alias, master string) error {
	alias = strings.TrimSpace(alias)
	master = strings.TrimSpace(master)
	if alias == "" || master == "" {
		return ops.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		insert into embarcador_aliases(alias, master, updated_at)
		values ($1, $2, now())
		on conflict (alias) do update
		set master = excluded.master, updated_at = now()
	`, alias, master)
	return err
}

// ListAliases returns every mapping ordered by alias ascending.
func (s *Store) ListAliases(ctx context.Context) ([]ops.Alias, error) {
	rows, err := s.db.QueryContext(ctx,
		`select alias, master, updated_at from embarcador_aliases order by alias asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ops.Alias
	for rows.Next() {
		var a ops.Alias
		if err := rows.Scan(&a.Alias, &a.Master, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
