package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

// JournalStorage is the write-only audit journal: every pilot transmission,
// every reply, every issued clearance. Nothing here is ever read back into
// session state; the query methods exist for the UI and for post-flight
// review.
type JournalStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewJournalStorage creates the journal storage and its tables.
func NewJournalStorage(db *sql.DB, log *logger.Logger) (*JournalStorage, error) {
	storage := &JournalStorage{
		db:     db,
		logger: log.Named("sqlite-journal"),
	}
	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize journal storage: %w", err)
	}
	return storage, nil
}

// initDB initializes the database tables
func (s *JournalStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transmissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			direction TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			normalized_text TEXT,
			source TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transmissions table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS clearances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			callsign TEXT NOT NULL,
			clearance_type TEXT NOT NULL,
			clearance_text TEXT NOT NULL,
			destination TEXT,
			sid TEXT,
			runway TEXT,
			initial_altitude INTEGER,
			squawk TEXT,
			accepted INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create clearances table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transmissions_session ON transmissions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transmissions_created ON transmissions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_clearances_session ON clearances(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clearances_callsign ON clearances(callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_clearances_created ON clearances(created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create journal index: %w", err)
		}
	}

	return nil
}

// RecordTransmission journals one exchange line and returns its ID.
func (s *JournalStorage) RecordTransmission(record *TransmissionRecord) (int64, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(
		`INSERT INTO transmissions
		(session_id, turn, direction, raw_text, normalized_text, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		record.Turn,
		record.Direction,
		record.RawText,
		record.NormalizedText,
		record.Source,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transmission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// RecordClearance journals one issued clearance and returns its ID.
func (s *JournalStorage) RecordClearance(record *ClearanceRecord) (int64, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(
		`INSERT INTO clearances
		(session_id, callsign, clearance_type, clearance_text, destination, sid, runway, initial_altitude, squawk, accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		record.Callsign,
		record.ClearanceType,
		record.ClearanceText,
		record.Destination,
		record.SID,
		record.Runway,
		record.InitialAltitude,
		record.Squawk,
		record.Accepted,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert clearance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// MarkClearanceAccepted flags a journalled clearance as read back correctly.
func (s *JournalStorage) MarkClearanceAccepted(id int64) error {
	_, err := s.db.Exec(`UPDATE clearances SET accepted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to update clearance: %w", err)
	}
	return nil
}

// TransmissionsBySession returns a session's journal, oldest first.
func (s *JournalStorage) TransmissionsBySession(sessionID string, limit int) ([]*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, turn, direction, raw_text, normalized_text, source, created_at
		FROM transmissions
		WHERE session_id = ?
		ORDER BY id ASC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmissions by session: %w", err)
	}
	defer rows.Close()

	return scanTransmissionRows(rows)
}

// ClearancesBySession returns a session's issued clearances, newest first.
func (s *JournalStorage) ClearancesBySession(sessionID string, limit int) ([]*ClearanceRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, callsign, clearance_type, clearance_text, destination, sid, runway, initial_altitude, squawk, accepted, created_at
		FROM clearances
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query clearances by session: %w", err)
	}
	defer rows.Close()

	return scanClearanceRows(rows)
}

// RecentClearances returns recent clearances across all sessions.
func (s *JournalStorage) RecentClearances(limit int) ([]*ClearanceRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, callsign, clearance_type, clearance_text, destination, sid, runway, initial_altitude, squawk, accepted, created_at
		FROM clearances
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent clearances: %w", err)
	}
	defer rows.Close()

	return scanClearanceRows(rows)
}

func scanTransmissionRows(rows *sql.Rows) ([]*TransmissionRecord, error) {
	var records []*TransmissionRecord
	for rows.Next() {
		var record TransmissionRecord
		var normalized, source sql.NullString
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.Turn,
			&record.Direction,
			&record.RawText,
			&normalized,
			&source,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transmission: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.NormalizedText = normalized.String
		record.Source = source.String

		records = append(records, &record)
	}
	return records, rows.Err()
}

func scanClearanceRows(rows *sql.Rows) ([]*ClearanceRecord, error) {
	var records []*ClearanceRecord
	for rows.Next() {
		var record ClearanceRecord
		var destination, sid, runway, squawk sql.NullString
		var altitude sql.NullInt64
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.Callsign,
			&record.ClearanceType,
			&record.ClearanceText,
			&destination,
			&sid,
			&runway,
			&altitude,
			&squawk,
			&record.Accepted,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clearance: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.Destination = destination.String
		record.SID = sid.String
		record.Runway = runway.String
		record.Squawk = squawk.String
		record.InitialAltitude = int(altitude.Int64)

		records = append(records, &record)
	}
	return records, rows.Err()
}
