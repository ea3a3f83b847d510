// Package sqlite is the embedded storage backend. It implements the same
// store interfaces as the PostgreSQL backend on a single database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Timestamps are unix nanoseconds so they order numerically; seq breaks ties
// between rows written in the same instant.
const schema = `
CREATE TABLE IF NOT EXISTS kernel_configs (
	version     TEXT PRIMARY KEY,
	config      TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS agents (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	external_id     TEXT NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	kernel_version  TEXT NOT NULL,
	metadata        TEXT,
	created_at      INTEGER NOT NULL,
	UNIQUE (tenant_id, external_id)
);

CREATE TABLE IF NOT EXISTS goal_assessments (
	seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
	id                   TEXT NOT NULL UNIQUE,
	tenant_id            TEXT NOT NULL,
	user_id              TEXT NOT NULL,
	agent_id             TEXT NOT NULL,
	goal_text            TEXT NOT NULL,
	goal_category        TEXT NOT NULL,
	gas_current_level    INTEGER NOT NULL,
	gas_target_level     INTEGER NOT NULL,
	ideal_state_rating   INTEGER NOT NULL,
	actual_state_rating  INTEGER NOT NULL,
	attempt_count        INTEGER NOT NULL,
	success_count        INTEGER NOT NULL,
	confidence_score     REAL NOT NULL,
	motivation_score     REAL NOT NULL,
	progress_delta       INTEGER NOT NULL,
	gap_score            INTEGER NOT NULL,
	kernel_version       TEXT NOT NULL,
	assessment_method    TEXT NOT NULL,
	session_ref          TEXT NOT NULL DEFAULT '',
	measured_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_goal_assessments_subject
	ON goal_assessments (tenant_id, user_id, agent_id, goal_text, measured_at);

CREATE TABLE IF NOT EXISTS belief_graphs (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	tenant_id       TEXT NOT NULL,
	user_id         TEXT NOT NULL,
	agent_id        TEXT NOT NULL,
	kernel_version  TEXT NOT NULL,
	method          TEXT NOT NULL,
	nodes           TEXT NOT NULL,
	edges           TEXT NOT NULL,
	conflict_score  REAL NOT NULL,
	tension_nodes   TEXT NOT NULL,
	core_beliefs    TEXT NOT NULL,
	session_ref     TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_belief_graphs_subject
	ON belief_graphs (tenant_id, user_id, agent_id, created_at);

CREATE TABLE IF NOT EXISTS cognitive_metrics (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	tenant_id           TEXT NOT NULL,
	user_id             TEXT NOT NULL,
	agent_id            TEXT NOT NULL,
	metric_type         TEXT NOT NULL,
	metric_value        REAL NOT NULL,
	threshold_value     REAL,
	threshold_exceeded  INTEGER NOT NULL,
	suggested_action    TEXT NOT NULL DEFAULT '',
	context_data        TEXT,
	kernel_version      TEXT NOT NULL,
	measured_at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cognitive_metrics_subject
	ON cognitive_metrics (tenant_id, user_id, agent_id, metric_type, measured_at);

CREATE TABLE IF NOT EXISTS cognitive_summaries (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	tenant_id     TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	agent_id      TEXT NOT NULL,
	session_ref   TEXT NOT NULL DEFAULT '',
	kind          TEXT NOT NULL,
	summary_text  TEXT NOT NULL,
	embedding     BLOB,
	created_at    INTEGER NOT NULL
);
`

// Open opens (or creates) the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; keeps WAL mode and the schema on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewStores wires every SQLite store onto one handle.
func NewStores(db *sql.DB) domain.Stores {
	return domain.Stores{
		Kernels:   &KernelStore{db: db},
		Agents:    &AgentStore{db: db},
		Goals:     &GoalAssessmentStore{db: db},
		Graphs:    &BeliefGraphStore{db: db},
		Metrics:   &MetricStore{db: db},
		Summaries: &SummaryStore{db: db},
		Ping:      db.PingContext,
		Close:     func() { db.Close() },
	}
}

var (
	_ domain.KernelStore         = (*KernelStore)(nil)
	_ domain.AgentStore          = (*AgentStore)(nil)
	_ domain.GoalAssessmentStore = (*GoalAssessmentStore)(nil)
	_ domain.BeliefGraphStore    = (*BeliefGraphStore)(nil)
	_ domain.MetricStore         = (*MetricStore)(nil)
	_ domain.SummaryStore        = (*SummaryStore)(nil)
)

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// stamp returns t as unix nanos, substituting the current time when t is zero.
func stamp(t time.Time) (int64, time.Time) {
	if t.IsZero() {
		t = time.Now()
	}
	t = t.UTC()
	return t.UnixNano(), t
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), v); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}

// encodeVector packs float32 values little-endian.
func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
