// Package store keeps training runs, their per-episode statistics and the
// learned Q tables in SQLite.
package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"taxi-rl-go/internal/engine"
)

type DB struct {
	conn *sqlx.DB
}

// Run is the summary row of one training session.
type Run struct {
	ID           string    `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	Algorithm    string    `db:"algorithm"`
	Episodes     int       `db:"episodes"`
	Seed         int64     `db:"seed"`
	SuccessCount int       `db:"success_count"`
	MeanReward   float64   `db:"mean_reward"`
	MeanSteps    float64   `db:"mean_steps"`
	ConfigJSON   string    `db:"config_json"`
}

// Episode is one completed episode of a run.
type Episode struct {
	RunID   string  `db:"run_id"`
	Episode int     `db:"episode"`
	Reward  float64 `db:"reward"`
	Steps   int     `db:"steps"`
	Success bool    `db:"success"`
}

func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		algorithm TEXT NOT NULL,
		episodes INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		success_count INTEGER NOT NULL,
		mean_reward REAL NOT NULL,
		mean_steps REAL NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS episodes (
		run_id TEXT NOT NULL REFERENCES runs(id),
		episode INTEGER NOT NULL,
		reward REAL NOT NULL,
		steps INTEGER NOT NULL,
		success INTEGER NOT NULL,
		PRIMARY KEY (run_id, episode)
	);

	CREATE TABLE IF NOT EXISTS qtables (
		run_id TEXT PRIMARY KEY REFERENCES runs(id),
		states INTEGER NOT NULL,
		actions INTEGER NOT NULL,
		data BLOB NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes the run summary, its episodes and its Q table in one
// transaction.
func (db *DB) SaveRun(run Run, cfg engine.Config, episodes []Episode, states, actions int, q []float64) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	run.ConfigJSON = string(cfgJSON)
	blob, err := encodeQ(q)
	if err != nil {
		return fmt.Errorf("encode q table: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO runs
		(id, created_at, algorithm, episodes, seed, success_count, mean_reward, mean_steps, config_json)
		VALUES (:id, :created_at, :algorithm, :episodes, :seed, :success_count, :mean_reward, :mean_steps, :config_json)`, run); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO episodes (run_id, episode, reward, steps, success) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ep := range episodes {
		success := 0
		if ep.Success {
			success = 1
		}
		if _, err := stmt.Exec(run.ID, ep.Episode, ep.Reward, ep.Steps, success); err != nil {
			return fmt.Errorf("insert episode %d: %w", ep.Episode, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO qtables (run_id, states, actions, data) VALUES (?, ?, ?, ?)`,
		run.ID, states, actions, blob); err != nil {
		return fmt.Errorf("insert q table: %w", err)
	}
	return tx.Commit()
}

func (db *DB) Run(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// Runs lists runs newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := db.conn.Select(&runs, `SELECT * FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	return runs, err
}

func (db *DB) Episodes(runID string) ([]Episode, error) {
	var eps []Episode
	err := db.conn.Select(&eps, `SELECT run_id, episode, reward, steps, success FROM episodes WHERE run_id = ? ORDER BY episode`, runID)
	return eps, err
}

// QTable returns the stored Q table of a run with its dimensions.
func (db *DB) QTable(runID string) (states, actions int, q []float64, err error) {
	var row struct {
		States  int    `db:"states"`
		Actions int    `db:"actions"`
		Data    []byte `db:"data"`
	}
	err = db.conn.Get(&row, `SELECT states, actions, data FROM qtables WHERE run_id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return 0, 0, nil, err
	}
	q, err = decodeQ(row.Data)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode q table: %w", err)
	}
	if len(q) != row.States*row.Actions {
		return 0, 0, nil, fmt.Errorf("q table has %d values for %dx%d", len(q), row.States, row.Actions)
	}
	return row.States, row.Actions, q, nil
}

// encodeQ stores values as little-endian float64 bits compressed with zstd.
func encodeQ(q []float64) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 8*len(q))
	for i, v := range q {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeQ(blob []byte) ([]float64, error) {
	dec, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("truncated q table: %d bytes", len(raw))
	}
	q := make([]float64, len(raw)/8)
	for i := range q {
		q[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return q, nil
}
