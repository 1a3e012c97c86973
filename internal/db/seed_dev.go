package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type SeedDevOptions struct {
	// Units to pre-create in dev, unit number -> resident phone.
	// When empty a small starter directory is seeded instead.
	Units map[string]string
}

func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	units := opt.Units
	if len(units) == 0 {
		// Minimal starter directory so the intake form works out of the box.
		units = map[string]string{
			"101": "917781943246",
			"102": "919812345678",
			"201": "918888888888",
		}
	}

	for unit, phone := range units {
		unit = strings.TrimSpace(unit)
		phone = strings.TrimSpace(phone)
		if unit == "" || phone == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, `
INSERT INTO units(unit_number, resident_phone, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(unit_number) DO UPDATE SET
  resident_phone = excluded.resident_phone,
  updated_at_ms  = excluded.updated_at_ms;
`, unit, phone, now, now); err != nil {
			return fmt.Errorf("seed unit %s: %w", unit, err)
		}
	}

	return nil
}
