// Package persistence provides SQLite-based storage for the save slot,
// the transition journal and run metadata.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/ninth-gate/internal/engine"
	"github.com/talgya/ninth-gate/internal/gate"
)

// ErrNoSave is returned by LoadSession when the slot is empty.
var ErrNoSave = engine.ErrNoSave

// Meta keys.
const (
	MetaStoryChecksum = "story_checksum"
	MetaStoryPath     = "story_path"
)

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
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

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		save_key TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		scene_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		exhaustion INTEGER NOT NULL,
		stability REAL NOT NULL,
		observation REAL NOT NULL,
		regulation REAL NOT NULL,
		instability REAL NOT NULL,
		flags_json TEXT NOT NULL,
		near_misses INTEGER NOT NULL,
		last_work TEXT NOT NULL,
		work_history_json TEXT NOT NULL,
		absorbed_event_seen INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		seam_exposure REAL NOT NULL,
		attention REAL NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		from_scene TEXT NOT NULL,
		to_scene TEXT NOT NULL,
		cause TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type saveRow struct {
	RunID             string  `db:"run_id"`
	SceneID           string  `db:"scene_id"`
	Day               int     `db:"day"`
	Exhaustion        int     `db:"exhaustion"`
	Stability         float64 `db:"stability"`
	Observation       float64 `db:"observation"`
	Regulation        float64 `db:"regulation"`
	Instability       float64 `db:"instability"`
	FlagsJSON         string  `db:"flags_json"`
	NearMisses        int     `db:"near_misses"`
	LastWork          string  `db:"last_work"`
	WorkHistoryJSON   string  `db:"work_history_json"`
	AbsorbedEventSeen bool    `db:"absorbed_event_seen"`
	Ticks             int     `db:"ticks"`
	SeamExposure      float64 `db:"seam_exposure"`
	Attention         float64 `db:"attention"`
	SavedAt           int64   `db:"saved_at"`
}

// SaveSession writes s into the slot named key, replacing what was there.
func (db *DB) SaveSession(key string, s *gate.Session) error {
	flagsJSON, err := json.Marshal(s.Flags.Sorted())
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	history := s.WorkHistory
	if history == nil {
		history = []string{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode work history: %w", err)
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO saves
		(save_key, run_id, scene_id, day, exhaustion, stability, observation,
		 regulation, instability, flags_json, near_misses, last_work,
		 work_history_json, absorbed_event_seen, ticks, seam_exposure, attention, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key, s.RunID, s.SceneID, s.Day, s.Exhaustion, s.Stability, s.Observation,
		s.Regulation, s.Instability, string(flagsJSON), s.NearMisses, s.LastWork,
		string(historyJSON), s.AbsorbedEventSeen, s.Ticks, s.SeamExposure, s.Attention,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save session %q: %w", key, err)
	}
	return nil
}

// LoadSession reads the slot named key. It returns ErrNoSave when the slot
// is empty.
func (db *DB) LoadSession(key string) (*gate.Session, error) {
	var row saveRow
	err := db.conn.Get(&row, `SELECT run_id, scene_id, day, exhaustion, stability,
		observation, regulation, instability, flags_json, near_misses, last_work,
		work_history_json, absorbed_event_seen, ticks, seam_exposure, attention, saved_at
		FROM saves WHERE save_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", key, err)
	}

	var flags []string
	if err := json.Unmarshal([]byte(row.FlagsJSON), &flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	var history []string
	if err := json.Unmarshal([]byte(row.WorkHistoryJSON), &history); err != nil {
		return nil, fmt.Errorf("decode work history: %w", err)
	}
	if history == nil {
		history = []string{}
	}

	s := &gate.Session{
		RunID:             row.RunID,
		SceneID:           row.SceneID,
		Day:               row.Day,
		Exhaustion:        row.Exhaustion,
		Stability:         row.Stability,
		Observation:       row.Observation,
		Regulation:        row.Regulation,
		Instability:       row.Instability,
		Flags:             gate.FlagSet{},
		NearMisses:        row.NearMisses,
		LastWork:          row.LastWork,
		WorkHistory:       history,
		AbsorbedEventSeen: row.AbsorbedEventSeen,
		Ticks:             row.Ticks,
		SeamExposure:      row.SeamExposure,
		Attention:         row.Attention,
	}
	for _, f := range flags {
		s.SetFlag(f)
	}

	slog.Debug("session loaded", "key", key, "run_id", s.RunID, "saved_at", time.Unix(row.SavedAt, 0).Format(time.RFC3339))
	return s, nil
}

// ClearSession empties the slot named key. Clearing an empty slot is not
// an error.
func (db *DB) ClearSession(key string) error {
	if _, err := db.conn.Exec("DELETE FROM saves WHERE save_key = ?", key); err != nil {
		return fmt.Errorf("clear session %q: %w", key, err)
	}
	return nil
}

// AppendTransitions adds ts to the journal in one transaction.
func (db *DB) AppendTransitions(ts []engine.Transition) error {
	if len(ts) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO transitions
		(run_id, day, tick, from_scene, to_scene, cause, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, t := range ts {
		if _, err := stmt.Exec(t.RunID, t.Day, t.Tick, t.From, t.To, t.Cause, now); err != nil {
			return fmt.Errorf("insert transition %s -> %s: %w", t.From, t.To, err)
		}
	}

	return tx.Commit()
}

// RecentTransitions returns the most recent N transitions, oldest first.
func (db *DB) RecentTransitions(limit int) ([]engine.Transition, error) {
	var ts []engine.Transition
	err := db.conn.Select(&ts,
		`SELECT run_id, day, tick, from_scene, to_scene, cause FROM
			(SELECT id, run_id, day, tick, from_scene, to_scene, cause FROM transitions ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC`,
		limit,
	)
	return ts, err
}

// CountTransitions returns the journal size, across all runs.
func (db *DB) CountTransitions() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM transitions")
	return n, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns "" and no
// error.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}
