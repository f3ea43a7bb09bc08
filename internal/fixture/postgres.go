package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the fixture_records table. Execute it via
// [PostgresStore.Migrate] or apply it manually.
const Schema = `
CREATE TABLE IF NOT EXISTS fixture_records (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    name        TEXT NOT NULL,
    attributes  JSONB NOT NULL DEFAULT '{}',
    tags        JSONB NOT NULL DEFAULT '[]',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_fixture_records_kind ON fixture_records(kind);
CREATE INDEX IF NOT EXISTS idx_fixture_records_tags ON fixture_records USING GIN (tags);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL. Attributes and tags are
// stored as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore returns a [PostgresStore] using db. Call
// [PostgresStore.Migrate] before the first query if the schema may be missing.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes [Schema].
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("fixture: migrate: %w", err)
	}
	return nil
}

// Insert implements [Store.Insert].
func (s *PostgresStore) Insert(ctx context.Context, rec Record) (Record, error) {
	if err := Validate(rec); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		id, err := generateID()
		if err != nil {
			return Record{}, fmt.Errorf("fixture: generate id: %w", err)
		}
		rec.ID = id
	}

	attrJSON, err := json.Marshal(emptyMap(rec.Attributes))
	if err != nil {
		return Record{}, fmt.Errorf("fixture: marshal attributes: %w", err)
	}
	tagsJSON, err := json.Marshal(emptySlice(rec.Tags))
	if err != nil {
		return Record{}, fmt.Errorf("fixture: marshal tags: %w", err)
	}

	const query = `
		INSERT INTO fixture_records (id, kind, name, attributes, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query, rec.ID, rec.Kind, rec.Name, attrJSON, tagsJSON).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Record{}, fmt.Errorf("%w: %q", ErrDuplicateID, rec.ID)
		}
		return Record{}, fmt.Errorf("fixture: insert %q: %w", rec.ID, err)
	}
	return rec, nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	const query = `
		SELECT id, kind, name, attributes, tags, created_at
		FROM fixture_records
		WHERE id = $1`

	var rec Record
	var attrJSON, tagsJSON []byte
	err := s.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Kind, &rec.Name, &attrJSON, &tagsJSON, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("fixture: get %q: %w", id, err)
	}
	if err := unmarshalFields(&rec, attrJSON, tagsJSON); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	tagsJSON, err := json.Marshal(emptySlice(opts.Tags))
	if err != nil {
		return nil, fmt.Errorf("fixture: marshal tag filter: %w", err)
	}

	const query = `
		SELECT id, kind, name, attributes, tags, created_at
		FROM fixture_records
		WHERE ($1 = '' OR kind = $1) AND tags @> $2::jsonb
		ORDER BY id`

	rows, err := s.db.Query(ctx, query, opts.Kind, tagsJSON)
	if err != nil {
		return nil, fmt.Errorf("fixture: list: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var attrJSON, recTags []byte
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Name, &attrJSON, &recTags, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("fixture: list scan: %w", err)
		}
		if err := unmarshalFields(&rec, attrJSON, recTags); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fixture: list: %w", err)
	}
	return recs, nil
}

// Count implements [Store.Count].
func (s *PostgresStore) Count(ctx context.Context, kind string) (int, error) {
	const query = `SELECT count(*) FROM fixture_records WHERE ($1 = '' OR kind = $1)`
	var n int
	if err := s.db.QueryRow(ctx, query, kind).Scan(&n); err != nil {
		return 0, fmt.Errorf("fixture: count %q: %w", kind, err)
	}
	return n, nil
}

// Truncate implements [Store.Truncate].
func (s *PostgresStore) Truncate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `TRUNCATE fixture_records`); err != nil {
		return fmt.Errorf("fixture: truncate: %w", err)
	}
	return nil
}

// Ping implements [Store.Ping].
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("fixture: ping: %w", err)
	}
	return nil
}

// unmarshalFields decodes the JSONB columns into rec.
func unmarshalFields(rec *Record, attrs, tags []byte) error {
	if err := json.Unmarshal(attrs, &rec.Attributes); err != nil {
		return fmt.Errorf("fixture: unmarshal attributes: %w", err)
	}
	if err := json.Unmarshal(tags, &rec.Tags); err != nil {
		return fmt.Errorf("fixture: unmarshal tags: %w", err)
	}
	return nil
}

// emptySlice returns s if non-nil, otherwise an empty slice so JSON encodes
// "[]" rather than "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// emptyMap returns m if non-nil, otherwise an empty map so JSON encodes "{}".
func emptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
