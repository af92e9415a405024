// Package db records polled frames into SQLite and serves them back for
// replay, plotting and the admin debug routes.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path and applies all
// pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		// every connection to an in-memory database is a new database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	d := &DB{DB: db, path: path}
	if err := d.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// dsn applies the connection pragmas to every pooled connection.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Session is one continuous recording against a single server.
type Session struct {
	ID        string     `json:"session_id"`
	Host      string     `json:"host"`
	Rotation  string     `json:"rotation"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Pose is one recorded subject sample.
type Pose struct {
	FrameSeq   uint64    `json:"frame_seq"`
	CapturedAt time.Time `json:"captured_at"`
	Subject    string    `json:"subject"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Z          float64   `json:"z"`
	Kind       string    `json:"rotation_kind"`
	Rotation   []float64 `json:"rotation"`
}

// StartSession opens a new recording session and returns it.
func (db *DB) StartSession(host string, kind vicon.RotationKind, at time.Time) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Host:      host,
		Rotation:  kind.String(),
		StartedAt: at.UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, host, rotation, started_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Host, s.Rotation, s.StartedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	monitoring.Diagf("recording session %s started for %s", s.ID, host)
	return s, nil
}

// EndSession marks a session as finished.
func (db *DB) EndSession(id string, at time.Time) error {
	res, err := db.Exec(`UPDATE sessions SET ended_at = ? WHERE session_id = ?`, at.UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RecordFrame stores every subject of one frame in a single transaction.
func (db *DB) RecordFrame(sessionID string, seq uint64, at time.Time, subjects []vicon.Subject) error {
	if len(subjects) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO subject_poses (
			session_id, frame_seq, captured_at, subject, x, y, z,
			rotation_kind, r0, r1, r2, r3
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	capturedAt := at.UTC().UnixNano()
	for _, s := range subjects {
		c := s.Rotation.Components()
		var r3 any
		if len(c) == 4 {
			r3 = c[3]
		}
		if _, err := stmt.Exec(
			sessionID, int64(seq), capturedAt, s.Name,
			s.Origin.X, s.Origin.Y, s.Origin.Z,
			s.Rotation.Kind.String(), c[0], c[1], c[2], r3,
		); err != nil {
			return fmt.Errorf("failed to record %s in frame %d: %w", s.Name, seq, err)
		}
	}

	return tx.Commit()
}

// Sessions returns recorded sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`SELECT session_id, host, rotation, started_at, ended_at
		FROM sessions ORDER BY started_at DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Host, &s.Rotation, &started, &ended); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, started).UTC()
		if ended.Valid {
			t := time.Unix(0, ended.Int64).UTC()
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Session returns a single session by id.
func (db *DB) Session(id string) (*Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
	)
	err := db.QueryRow(`SELECT session_id, host, rotation, started_at, ended_at
		FROM sessions WHERE session_id = ?`, id).Scan(&s.ID, &s.Host, &s.Rotation, &started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s.StartedAt = time.Unix(0, started).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		s.EndedAt = &t
	}
	return &s, nil
}

// SubjectNames returns the distinct subjects recorded in a session.
func (db *DB) SubjectNames(sessionID string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT subject FROM subject_poses
		WHERE session_id = ? ORDER BY subject`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SubjectTrack returns up to limit poses of one subject in frame order. A
// non-positive limit returns every pose.
func (db *DB) SubjectTrack(sessionID, subject string, limit int) ([]Pose, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT frame_seq, captured_at, subject, x, y, z, rotation_kind, r0, r1, r2, r3
		FROM subject_poses WHERE session_id = ? AND subject = ?
		ORDER BY frame_seq LIMIT ?`, sessionID, subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var track []Pose
	for rows.Next() {
		var (
			p          Pose
			seq        int64
			capturedAt int64
			r0, r1, r2 float64
			r3         sql.NullFloat64
		)
		if err := rows.Scan(&seq, &capturedAt, &p.Subject, &p.X, &p.Y, &p.Z, &p.Kind, &r0, &r1, &r2, &r3); err != nil {
			return nil, err
		}
		p.FrameSeq = uint64(seq)
		p.CapturedAt = time.Unix(0, capturedAt).UTC()
		p.Rotation = []float64{r0, r1, r2}
		if r3.Valid {
			p.Rotation = append(p.Rotation, r3.Float64)
		}
		track = append(track, p)
	}
	return track, rows.Err()
}
