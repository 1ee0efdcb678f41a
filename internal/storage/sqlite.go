//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"halt/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) SaveCensus(ctx context.Context, census model.CensusRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeCensus(census)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO censuses (id, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, census.ID, census.CreatedAtUTC, census.SchemaVersion, census.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetCensus(ctx context.Context, id string) (model.CensusRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.CensusRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM censuses WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CensusRecord{}, false, nil
		}
		return model.CensusRecord{}, false, err
	}

	census, err := DecodeCensus(payload)
	if err != nil {
		return model.CensusRecord{}, false, err
	}
	return census, true, nil
}

func (s *SQLiteStore) ListCensuses(ctx context.Context) ([]model.CensusRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM censuses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CensusRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		census, err := DecodeCensus(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, census)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveMachineResults(ctx context.Context, censusID string, results []model.MachineResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeMachineResults(results)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO machine_results (census_id, payload)
		VALUES (?, ?)
		ON CONFLICT(census_id) DO UPDATE SET
			payload = excluded.payload
	`, censusID, payload)
	return err
}

func (s *SQLiteStore) GetMachineResults(ctx context.Context, censusID string) ([]model.MachineResult, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM machine_results WHERE census_id = ?`, censusID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	results, err := DecodeMachineResults(payload)
	if err != nil {
		return nil, false, err
	}
	return results, true, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS censuses (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS machine_results (
			census_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
