package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/pandasuvm/visitor-management-system/internal/db"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
)

type UnitStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUnitStore(db *sql.DB, writer *dbpkg.Worker) *UnitStore {
	return &UnitStore{db: db, writer: writer}
}

func (s *UnitStore) ResidentPhone(ctx context.Context, unitNumber string) (string, error) {
	unitNumber = strings.TrimSpace(unitNumber)
	if unitNumber == "" {
		return "", store.ErrUnknownUnit
	}

	var phone string
	err := s.db.QueryRowContext(ctx,
		`SELECT resident_phone FROM units WHERE unit_number = ?;`, unitNumber).Scan(&phone)
	if err == sql.ErrNoRows {
		return "", store.ErrUnknownUnit
	}
	if err != nil {
		return "", fmt.Errorf("ResidentPhone query: %w", err)
	}
	return phone, nil
}

func (s *UnitStore) List(ctx context.Context) ([]store.UnitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_number, resident_phone FROM units ORDER BY unit_number;`)
	if err != nil {
		return nil, fmt.Errorf("List query: %w", err)
	}
	defer rows.Close()

	var out []store.UnitRecord
	for rows.Next() {
		var rec store.UnitRecord
		if err := rows.Scan(&rec.UnitNumber, &rec.ResidentPhone); err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}
	return out, nil
}

func (s *UnitStore) ReplaceAll(ctx context.Context, units map[string]string) error {
	now := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM units;`); err != nil {
			return fmt.Errorf("ReplaceAll clear: %w", err)
		}

		for unit, phone := range units {
			unit = strings.TrimSpace(unit)
			phone = strings.TrimSpace(phone)
			if unit == "" || phone == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO units(unit_number, resident_phone, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?);
`, unit, phone, now, now); err != nil {
				return fmt.Errorf("ReplaceAll insert %s: %w", unit, err)
			}
		}
		return nil
	})
}
