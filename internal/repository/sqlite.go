package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			participant_id TEXT NOT NULL,
			status TEXT NOT NULL,
			config TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at DATETIME,
			ended_at DATETIME,
			error TEXT,
			summary TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`,
		`CREATE TABLE IF NOT EXISTS trials (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			block INTEGER NOT NULL,
			trial_type TEXT NOT NULL,
			trial INTEGER NOT NULL,
			signal INTEGER NOT NULL,
			response INTEGER NOT NULL,
			ssd_ns INTEGER,
			rt_ns INTEGER,
			outcome TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	config, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("encode session config: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, participant_id, status, config, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.SessionID, session.ParticipantID, session.Status, string(config), session.CreatedAt)
	return err
}

const sessionColumns = `session_id, participant_id, status, config, created_at, started_at, ended_at, error, summary`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var config string
	var startedAt, endedAt sql.NullTime
	var errMsg, summary sql.NullString
	if err := row.Scan(&session.SessionID, &session.ParticipantID, &session.Status, &config,
		&session.CreatedAt, &startedAt, &endedAt, &errMsg, &summary); err != nil {
		return nil, err
	}
	session.Config = domain.DefaultTaskConfig()
	if err := json.Unmarshal([]byte(config), &session.Config); err != nil {
		return nil, fmt.Errorf("decode config of session %s: %w", session.SessionID, err)
	}
	if startedAt.Valid {
		session.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	if errMsg.Valid {
		session.Error = errMsg.String
	}
	if summary.Valid && summary.String != "" {
		session.Summary = json.RawMessage(summary.String)
	}
	return &session, nil
}

// GetSession retrieves a session by ID. A missing session is (nil, nil).
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the most recent sessions first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC, session_id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// UpdateSessionStarted marks a session as running.
func (s *SQLiteStore) UpdateSessionStarted(ctx context.Context, sessionID string, startedAt time.Time) error {
	return s.expectOne(s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, started_at = ? WHERE session_id = ?`,
		domain.SessionStatusRunning, startedAt, sessionID))
}

// UpdateSessionFinished records how a session ended.
func (s *SQLiteStore) UpdateSessionFinished(ctx context.Context, sessionID string, status domain.SessionStatus, endedAt time.Time, errMsg string, summary json.RawMessage) error {
	var errStr, summaryStr sql.NullString
	if errMsg != "" {
		errStr = sql.NullString{String: errMsg, Valid: true}
	}
	if len(summary) > 0 {
		summaryStr = sql.NullString{String: string(summary), Valid: true}
	}
	return s.expectOne(s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, ended_at = ?, error = ?, summary = ? WHERE session_id = ?`,
		status, endedAt, errStr, summaryStr, sessionID))
}

func (s *SQLiteStore) expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// AppendTrial stores a record as the next trial of a session and returns its
// sequence number, starting at 1.
func (s *SQLiteStore) AppendTrial(ctx context.Context, sessionID string, record domain.TrialRecord) (int64, error) {
	response := 0
	if record.Released {
		response = 1
	}
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO trials (session_id, seq, block, trial_type, trial, signal, response, ssd_ns, rt_ns, outcome, created_at)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ? FROM trials WHERE session_id = ?
		 RETURNING seq`,
		sessionID, record.Block, record.Label, record.Trial, int(record.Signal), response,
		nullDuration(record.SSD), nullDuration(record.RT), record.Outcome, time.Now(), sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append trial to session %s: %w", sessionID, err)
	}
	return seq, nil
}

// ListTrials returns a session's trials in the order they were appended.
func (s *SQLiteStore) ListTrials(ctx context.Context, sessionID string) ([]domain.StoredTrial, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, block, trial_type, trial, signal, response, ssd_ns, rt_ns, outcome, created_at
		 FROM trials WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trials []domain.StoredTrial
	for rows.Next() {
		st := domain.StoredTrial{SessionID: sessionID}
		var signal, response int
		var ssd, rt sql.NullInt64
		if err := rows.Scan(&st.Seq, &st.Record.Block, &st.Record.Label, &st.Record.Trial, &signal, &response,
			&ssd, &rt, &st.Record.Outcome, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.Record.Signal = domain.Signal(signal)
		st.Record.Released = response == 1
		st.Record.SSD = durationFrom(ssd)
		st.Record.RT = durationFrom(rt)
		trials = append(trials, st)
	}
	return trials, rows.Err()
}

func nullDuration(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func durationFrom(n sql.NullInt64) *time.Duration {
	if !n.Valid {
		return nil
	}
	d := time.Duration(n.Int64)
	return &d
}
