// internal/logstore/sqlite.go
package logstore

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tamzrod/flowlogger/internal/sample"
)

const createSamplesSQL = `
CREATE TABLE IF NOT EXISTS samples (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    taken_at TEXT NOT NULL,
    timestamp TEXT,
    avg_flow REAL,
    totalizer INTEGER,
    transmitter_temp REAL,
    battery INTEGER,
    power_status INTEGER,
    fault_status INTEGER,
    missing INTEGER NOT NULL,
    line TEXT NOT NULL
);`

const insertSampleSQL = `INSERT INTO samples(id, taken_at, timestamp, avg_flow, totalizer,
    transmitter_temp, battery, power_status, fault_status, missing, line)
    VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteStore keeps samples in a SQLite table, one row per record with
// NULL for missing fields.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("logstore: sqlite path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("logstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createSamplesSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("logstore: create table in %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(r sample.Record) error {
	takenAt := r.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	_, err := s.db.Exec(insertSampleSQL,
		uuid.NewString(),
		takenAt.UTC().Format(time.RFC3339Nano),
		nullable(!r.Missing.Has(sample.FieldTimestamp), r.Timestamp.String()),
		nullable(!r.Missing.Has(sample.FieldAverageFlow), float64(r.AverageFlow)),
		nullable(!r.Missing.Has(sample.FieldTotalizer), int64(r.Totalizer)),
		nullable(!r.Missing.Has(sample.FieldTransmitterTemp), float64(r.TransmitterTemp)),
		nullable(!r.Missing.Has(sample.FieldBattery), int64(r.BatteryPercent)),
		nullable(!r.Missing.Has(sample.FieldPowerStatus), int64(r.PowerStatus)),
		nullable(!r.Missing.Has(sample.FieldFaultStatus), int64(r.FaultStatus)),
		int64(r.Missing),
		r.Line(),
	)
	if err != nil {
		return fmt.Errorf("logstore: insert sample: %w", err)
	}
	return nil
}

func nullable(ok bool, v any) any {
	if !ok {
		return nil
	}
	return v
}

func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM samples`); err != nil {
		return fmt.Errorf("logstore: reset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Dump(w io.Writer) error {
	rows, err := s.db.Query(`SELECT line FROM samples ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("logstore: query: %w", err)
	}
	defer rows.Close()

	if _, err := io.WriteString(w, sample.Header+"\n"); err != nil {
		return err
	}
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("logstore: scan: %w", err)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored samples.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("logstore: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
