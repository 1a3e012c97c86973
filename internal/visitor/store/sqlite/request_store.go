package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/pandasuvm/visitor-management-system/internal/db"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

type RequestStore struct {
	db       *sql.DB
	writer   *dbpkg.Worker
	validity time.Duration
}

func NewRequestStore(db *sql.DB, writer *dbpkg.Worker, validity time.Duration) *RequestStore {
	if validity <= 0 {
		validity = store.DefaultValidity
	}
	return &RequestStore{db: db, writer: writer, validity: validity}
}

const requestCols = `id, visitor_name, visitor_phone, unit_number, purpose, photo_ref,
       status, created_at_ms, decided_at_ms, valid_until_ms, gatepass_json`

func (s *RequestStore) Create(ctx context.Context, req store.NewRequest) (types.VisitorRequest, error) {
	now := time.UnixMilli(time.Now().UTC().UnixMilli()).UTC()

	rec := types.VisitorRequest{
		ID:           uuid.NewString(),
		VisitorName:  req.VisitorName,
		VisitorPhone: req.VisitorPhone,
		UnitNumber:   req.UnitNumber,
		Purpose:      req.Purpose,
		PhotoRef:     req.PhotoRef,
		Status:       types.StatusPending,
		CreatedAt:    now,
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO visitor_requests(
  id, visitor_name, visitor_phone, unit_number, purpose, photo_ref,
  status, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.VisitorName, rec.VisitorPhone, rec.UnitNumber,
			rec.Purpose, rec.PhotoRef, string(rec.Status), rec.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("Create insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.VisitorRequest{}, err
	}

	return rec, nil
}

func (s *RequestStore) Get(ctx context.Context, id string) (types.VisitorRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestCols+` FROM visitor_requests WHERE id = ?;`, id)

	rec, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return types.VisitorRequest{}, store.ErrNotFound
	}
	if err != nil {
		return types.VisitorRequest{}, fmt.Errorf("Get: %w", err)
	}
	return rec, nil
}

func (s *RequestStore) SetApproved(ctx context.Context, id string) (types.VisitorRequest, error) {
	return s.transition(ctx, id, types.StatusApproved)
}

func (s *RequestStore) SetRejected(ctx context.Context, id string) (types.VisitorRequest, error) {
	return s.transition(ctx, id, types.StatusRejected)
}

// transition performs the status check and the write inside one worker
// transaction, so at most one decision can ever move a record out of
// pending.
func (s *RequestStore) transition(ctx context.Context, id string, to types.Status) (types.VisitorRequest, error) {
	now := time.Now().UTC()
	decidedMs := now.UnixMilli()

	var rec types.VisitorRequest
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM visitor_requests WHERE id = ?;`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("transition read: %w", err)
		}
		if types.Status(status) != types.StatusPending {
			return store.ErrInvalidState
		}

		var validUntilMs any
		if to == types.StatusApproved {
			validUntilMs = decidedMs + s.validity.Milliseconds()
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE visitor_requests
SET status = ?, decided_at_ms = ?, valid_until_ms = ?
WHERE id = ?;
`, string(to), decidedMs, validUntilMs, id); err != nil {
			return fmt.Errorf("transition update: %w", err)
		}

		row := tx.QueryRowContext(ctx,
			`SELECT `+requestCols+` FROM visitor_requests WHERE id = ?;`, id)
		rec, err = scanRequest(row)
		if err != nil {
			return fmt.Errorf("transition reread: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.VisitorRequest{}, err
	}
	return rec, nil
}

func (s *RequestStore) AttachGatepass(ctx context.Context, id string, gp types.Gatepass) (types.VisitorRequest, error) {
	payload, err := json.Marshal(gp)
	if err != nil {
		return types.VisitorRequest{}, fmt.Errorf("AttachGatepass encode: %w", err)
	}

	var rec types.VisitorRequest
	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var status string
		var existing sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT status, gatepass_json FROM visitor_requests WHERE id = ?;`, id).
			Scan(&status, &existing)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("AttachGatepass read: %w", err)
		}
		if types.Status(status) != types.StatusApproved {
			return store.ErrInvalidState
		}
		if existing.Valid && existing.String != "" {
			return store.ErrGatepassExists
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE visitor_requests SET gatepass_json = ? WHERE id = ?;
`, string(payload), id); err != nil {
			return fmt.Errorf("AttachGatepass update: %w", err)
		}

		row := tx.QueryRowContext(ctx,
			`SELECT `+requestCols+` FROM visitor_requests WHERE id = ?;`, id)
		rec, err = scanRequest(row)
		if err != nil {
			return fmt.Errorf("AttachGatepass reread: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.VisitorRequest{}, err
	}
	return rec, nil
}

func (s *RequestStore) List(ctx context.Context) ([]types.VisitorRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestCols+` FROM visitor_requests ORDER BY created_at_ms DESC, id;`)
	if err != nil {
		return nil, fmt.Errorf("List query: %w", err)
	}
	defer rows.Close()

	var out []types.VisitorRequest
	for rows.Next() {
		rec, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (types.VisitorRequest, error) {
	var rec types.VisitorRequest
	var status string
	var createdMs int64
	var decidedMs, validMs sql.NullInt64
	var gpJSON sql.NullString

	if err := row.Scan(
		&rec.ID, &rec.VisitorName, &rec.VisitorPhone, &rec.UnitNumber,
		&rec.Purpose, &rec.PhotoRef, &status, &createdMs,
		&decidedMs, &validMs, &gpJSON,
	); err != nil {
		return types.VisitorRequest{}, err
	}

	rec.Status = types.Status(status)
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	if decidedMs.Valid {
		t := time.UnixMilli(decidedMs.Int64).UTC()
		rec.DecidedAt = &t
	}
	if validMs.Valid {
		t := time.UnixMilli(validMs.Int64).UTC()
		rec.ValidUntil = &t
	}
	if gpJSON.Valid && gpJSON.String != "" {
		var gp types.Gatepass
		if err := json.Unmarshal([]byte(gpJSON.String), &gp); err != nil {
			return types.VisitorRequest{}, fmt.Errorf("decode gatepass: %w", err)
		}
		rec.Gatepass = &gp
	}

	return rec, nil
}
