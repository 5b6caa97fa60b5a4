package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is the query executor shared by all controllers. One instance is
// built at startup over a bounded pool and reused for every request.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle. Used by tests (sqlmock) and tooling.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// delayMinutesSQL is the SQL twin of ops.DelayMinutes: the greater of the
// clamped numeric minute count and the parsed "HH:MM" string. Every query
// that needs lateness uses this one fragment so the three controllers
// cannot drift apart.
const delayMinutesSQL = `greatest(
	greatest(coalesce(o.tempo_atraso, 0), 0),
	case when trim(coalesce(o.atraso_hhmm, '')) ~ '^\d{1,3}:[0-5]\d$'
		then split_part(trim(o.atraso_hhmm), ':', 1)::int * 60
			+ split_part(trim(o.atraso_hhmm), ':', 2)::int
		else 0 end
)`
