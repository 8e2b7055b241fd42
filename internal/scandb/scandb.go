// Package scandb persists accepted scan records to a local sqlite database.
// It is an optional second sink next to the CSV stream: same records, but
// queryable across runs.
package scandb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/lidarlog/internal/scan"
	"github.com/banshee-data/lidarlog/internal/sink"
)

//go:embed schema.sql
var schemaSQL string

// ScanDB wraps the sqlite handle. The schema is applied on open so a fresh
// file is immediately usable.
type ScanDB struct {
	*sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. Failures wrap sink.ErrSinkUnavailable so the session loop treats
// them the same as a broken CSV target.
func Open(path string) (*ScanDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sink.ErrSinkUnavailable, path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", sink.ErrSinkUnavailable, path, err)
	}
	return &ScanDB{db}, nil
}

// StartSession creates a session row and returns its id. runID is the
// process run UUID; deviceSerial is the negotiated device identity, recorded
// purely for traceability.
func (db *ScanDB) StartSession(runID, deviceSerial string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO scan_sessions (run_id, device_serial, started_at) VALUES (?, ?, ?)`,
		runID, deviceSerial, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

// SessionSink returns a RecordSink that appends records under the given
// session. Closing the sink stamps the session's end time; the database
// handle itself stays open and is closed by its owner.
func (db *ScanDB) SessionSink(sessionID int64) sink.RecordSink {
	return &sessionSink{db: db, sessionID: sessionID}
}

type sessionSink struct {
	db        *ScanDB
	sessionID int64
}

func (s *sessionSink) Write(r scan.Record) error {
	_, err := s.db.Exec(
		`INSERT INTO scan_records (session_id, timestamp, angle, distance, quality, revolution)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.sessionID, r.Timestamp, r.AngleDeg, r.DistanceMM, int(r.Quality), r.Revolution,
	)
	if err != nil {
		return fmt.Errorf("insert scan record: %w", err)
	}
	return nil
}

func (s *sessionSink) Close() error {
	_, err := s.db.Exec(
		`UPDATE scan_sessions SET ended_at = ? WHERE id = ?`,
		time.Now().Unix(), s.sessionID,
	)
	return err
}
