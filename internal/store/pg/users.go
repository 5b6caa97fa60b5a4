package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"opertrack.org/internal/ops"
)

const userColumns = `u.id, u.subject, u.email, coalesce(u.nome, ''), u.role, u.status,
	u.embarcador_id, coalesce(e.nome, ''), u.created_at, u.updated_at`

const userFrom = ` from usuarios u left join embarcadores e on e.id = u.embarcador_id`

// RegisterUser creates a pending user linked to its identity-provider
// subject. Shipper lookup-or-create and the user insert run in one
// transaction: both commit or neither does.
func (s *Store) RegisterUser(ctx context.Context, u ops.User) (ops.User, error) {
	u.Subject = strings.TrimSpace(u.Subject)
	u.Email = strings.TrimSpace(u.Email)
	if u.Subject == "" || u.Email == "" {
		return ops.User{}, ops.ErrInvalidInput
	}
	if u.Role != ops.RoleAdmin && u.Role != ops.RoleEmbarcador {
		return ops.User{}, ops.ErrInvalidInput
	}
	if u.Role == ops.RoleEmbarcador && strings.TrimSpace(u.Embarcador) == "" {
		return ops.User{}, ops.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ops.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var embarcadorID *int
	if u.Role == ops.RoleEmbarcador {
		nome := strings.TrimSpace(u.Embarcador)
		var id int
		err := tx.QueryRowContext(ctx,
			`select id from embarcadores where upper(nome) = upper($1)`, nome).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx,
				`insert into embarcadores(nome) values ($1) returning id`, nome).Scan(&id)
		}
		if err != nil {
			return ops.User{}, err
		}
		embarcadorID = &id
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Status = ops.StatusPendente
	u.EmbarcadorID = embarcadorID

	_, err = tx.ExecContext(ctx, `
		insert into usuarios(id, subject, email, nome, role, status, embarcador_id)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, u.ID, u.Subject, u.Email, nullEmpty(u.Nome), u.Role, u.Status, embarcadorID)
	if err != nil {
		if isUniqueViolation(err) {
			return ops.User{}, ops.ErrAlreadyExists
		}
		return ops.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return ops.User{}, err
	}
	return u, nil
}

// PendingUsers lists users awaiting admin approval, oldest first.
func (s *Store) PendingUsers(ctx context.Context) ([]ops.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+userFrom+` where u.status = $1 order by u.created_at asc`,
		ops.StatusPendente)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ops.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ApproveUser transitions a pending user to active.
func (s *Store) ApproveUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update usuarios set status = $1, updated_at = now() where id = $2`,
		ops.StatusAtivo, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ops.ErrNotFound
	}
	return nil
}

// FindUserBySubject backs the role check done on every request.
func (s *Store) FindUserBySubject(ctx context.Context, subject string) (ops.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+userFrom+` where u.subject = $1`, subject)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ops.User{}, ops.ErrNotFound
	}
	if err != nil {
		return ops.User{}, err
	}
	return u, nil
}

func scanUser(row rowScanner) (ops.User, error) {
	var (
		u            ops.User
		embarcadorID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Subject, &u.Email, &u.Nome, &u.Role, &u.Status,
		&embarcadorID, &u.Embarcador, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return ops.User{}, err
	}
	if embarcadorID.Valid {
		v := int(embarcadorID.Int64)
		u.EmbarcadorID = &v
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
