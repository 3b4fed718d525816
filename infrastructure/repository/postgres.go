package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
	_ "github.com/lib/pq"              // registers "postgres" driver

	"github.com/hoangpro/omen/domain/signal"
)

// PostgresRepository is the production Repository: one canonical index
// on signal_id (the table's primary key drives UPSERT), a unique
// secondary index on input_event_hash for the idempotency probe, and a
// (source_event_id, generated_at desc) index for FindByEventID.
type PostgresRepository struct {
	db *sqlx.DB
}

// Connect opens the signal store using the pgx stdlib driver.
func Connect(dsn string) (*PostgresRepository, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect signal repository: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// Migrate creates the signals table and its indices if absent.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS omen_signals (
	signal_id         TEXT PRIMARY KEY,
	source_event_id   TEXT NOT NULL,
	input_event_hash  TEXT NOT NULL,
	generated_at      TIMESTAMPTZ NOT NULL,
	payload           JSONB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS omen_signals_hash_idx ON omen_signals (input_event_hash);
CREATE INDEX IF NOT EXISTS omen_signals_event_idx ON omen_signals (source_event_id, generated_at DESC);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate signal repository: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, sig signal.OmenSignal) error {
	payload, err := signal.CanonicalJSON(sig)
	if err != nil {
		return fmt.Errorf("marshal signal for save: %w", err)
	}

	const upsert = `
INSERT INTO omen_signals (signal_id, source_event_id, input_event_hash, generated_at, payload)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (signal_id) DO UPDATE SET
	source_event_id = EXCLUDED.source_event_id,
	input_event_hash = EXCLUDED.input_event_hash,
	generated_at = EXCLUDED.generated_at,
	payload = EXCLUDED.payload
`
	_, err = r.db.ExecContext(ctx, upsert, sig.SignalID, sig.SourceEventID, sig.InputEventHash, sig.GeneratedAt, payload)
	if err != nil {
		return fmt.Errorf("upsert signal %s: %w", sig.SignalID, err)
	}
	return nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, inputEventHash string) (*signal.OmenSignal, bool, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM omen_signals WHERE input_event_hash = $1`, inputEventHash)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find signal by hash: %w", err)
	}
	var sig signal.OmenSignal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return nil, false, fmt.Errorf("unmarshal signal by hash: %w", err)
	}
	return &sig, true, nil
}

func (r *PostgresRepository) FindByEventID(ctx context.Context, sourceEventID string) ([]signal.OmenSignal, error) {
	var payloads [][]byte
	err := r.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM omen_signals WHERE source_event_id = $1 ORDER BY generated_at DESC`, sourceEventID)
	if err != nil {
		return nil, fmt.Errorf("find signals by event id: %w", err)
	}
	return unmarshalAll(payloads)
}

func (r *PostgresRepository) FindRecent(ctx context.Context, limit, offset int, since *time.Time) ([]signal.OmenSignal, error) {
	var payloads [][]byte
	var err error
	if since != nil {
		err = r.db.SelectContext(ctx, &payloads,
			`SELECT payload FROM omen_signals WHERE generated_at >= $1 ORDER BY generated_at DESC LIMIT $2 OFFSET $3`,
			*since, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &payloads,
			`SELECT payload FROM omen_signals ORDER BY generated_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("find recent signals: %w", err)
	}
	return unmarshalAll(payloads)
}

func (r *PostgresRepository) Count(ctx context.Context, since *time.Time) (int, error) {
	var n int
	var err error
	if since != nil {
		err = r.db.GetContext(ctx, &n, `SELECT count(*) FROM omen_signals WHERE generated_at >= $1`, *since)
	} else {
		err = r.db.GetContext(ctx, &n, `SELECT count(*) FROM omen_signals`)
	}
	if err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}

func unmarshalAll(payloads [][]byte) ([]signal.OmenSignal, error) {
	out := make([]signal.OmenSignal, 0, len(payloads))
	for _, p := range payloads {
		var sig signal.OmenSignal
		if err := json.Unmarshal(p, &sig); err != nil {
			return nil, fmt.Errorf("unmarshal signal row: %w", err)
		}
		out = append(out, sig)
	}
	return out, nil
}
