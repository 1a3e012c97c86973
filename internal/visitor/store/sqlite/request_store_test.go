package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	sqlitestore "github.com/pandasuvm/visitor-management-system/internal/visitor/store/sqlite"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

func newRequestStore(t *testing.T) *sqlitestore.RequestStore {
	t.Helper()

	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	return sqlitestore.NewRequestStore(conn, w, 6*time.Hour)
}

// ═══════════════════════════════════════════════════════════════════════════
// Create / Get
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestStore_CreateAndGet(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, err := rs.Create(ctx, store.NewRequest{
		VisitorName:  "John Doe",
		VisitorPhone: "+15550001111",
		UnitNumber:   "101",
		Purpose:      "delivery",
		PhotoRef:     "/uploads/john.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected a generated id")
	}
	if rec.Status != types.StatusPending {
		t.Errorf("expected pending, got %s", rec.Status)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := rs.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.VisitorName != "John Doe" || got.UnitNumber != "101" || got.Purpose != "delivery" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt drifted: %s vs %s", got.CreatedAt, rec.CreatedAt)
	}
	if got.DecidedAt != nil || got.ValidUntil != nil || got.Gatepass != nil {
		t.Error("fresh record must not carry decision fields")
	}
}

func TestRequestStore_Get_NotFound(t *testing.T) {
	rs := newRequestStore(t)

	_, err := rs.Get(context.Background(), "no-such-id")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Transitions
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestStore_SetApproved(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})

	got, err := rs.SetApproved(ctx, rec.ID)
	if err != nil {
		t.Fatalf("SetApproved: %v", err)
	}
	if got.Status != types.StatusApproved {
		t.Errorf("expected approved, got %s", got.Status)
	}
	if got.DecidedAt == nil || got.ValidUntil == nil {
		t.Fatal("expected decidedAt and validUntil set")
	}
	if want := got.DecidedAt.Add(6 * time.Hour); !got.ValidUntil.Equal(want) {
		t.Errorf("validUntil %s, want decidedAt+6h %s", got.ValidUntil, want)
	}
}

func TestRequestStore_SetRejected(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})

	got, err := rs.SetRejected(ctx, rec.ID)
	if err != nil {
		t.Fatalf("SetRejected: %v", err)
	}
	if got.Status != types.StatusRejected {
		t.Errorf("expected rejected, got %s", got.Status)
	}
	if got.DecidedAt == nil {
		t.Error("expected decidedAt set")
	}
	if got.ValidUntil != nil {
		t.Error("rejected record must not get a validity window")
	}
}

func TestRequestStore_Transition_OnlyOnce(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})
	if _, err := rs.SetApproved(ctx, rec.ID); err != nil {
		t.Fatalf("SetApproved: %v", err)
	}

	if _, err := rs.SetRejected(ctx, rec.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for second transition, got %v", err)
	}
	if _, err := rs.SetApproved(ctx, rec.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for repeated approval, got %v", err)
	}

	got, _ := rs.Get(ctx, rec.ID)
	if got.Status != types.StatusApproved {
		t.Errorf("status changed by a rejected transition: %s", got.Status)
	}
}

func TestRequestStore_Transition_NotFound(t *testing.T) {
	rs := newRequestStore(t)

	if _, err := rs.SetApproved(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// AttachGatepass
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestStore_AttachGatepass(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})
	rec, err := rs.SetApproved(ctx, rec.ID)
	if err != nil {
		t.Fatalf("SetApproved: %v", err)
	}

	gp := types.Gatepass{
		PassID:      "GP-1234-2026-02-15",
		VisitorName: rec.VisitorName,
		UnitNumber:  rec.UnitNumber,
		ApprovedAt:  *rec.DecidedAt,
		ValidUntil:  *rec.ValidUntil,
		QRRef:       "/qr/sample-qr.png",
		GeneratedAt: *rec.DecidedAt,
	}

	got, err := rs.AttachGatepass(ctx, rec.ID, gp)
	if err != nil {
		t.Fatalf("AttachGatepass: %v", err)
	}
	if got.Gatepass == nil || got.Gatepass.PassID != gp.PassID {
		t.Fatalf("expected stored gatepass, got %+v", got.Gatepass)
	}

	// Survives a round trip through the gatepass_json column.
	got, err = rs.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Gatepass == nil || got.Gatepass.PassID != gp.PassID {
		t.Fatal("gatepass lost on reread")
	}
	if !got.Gatepass.ValidUntil.Equal(gp.ValidUntil) {
		t.Errorf("gatepass validity drifted: %s vs %s", got.Gatepass.ValidUntil, gp.ValidUntil)
	}
}

func TestRequestStore_AttachGatepass_OnlyOnce(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})
	rec, _ = rs.SetApproved(ctx, rec.ID)

	gp := types.Gatepass{PassID: "GP-1111-2026-02-15", ApprovedAt: *rec.DecidedAt, ValidUntil: *rec.ValidUntil}
	if _, err := rs.AttachGatepass(ctx, rec.ID, gp); err != nil {
		t.Fatalf("first attach: %v", err)
	}

	dup := types.Gatepass{PassID: "GP-2222-2026-02-15", ApprovedAt: *rec.DecidedAt, ValidUntil: *rec.ValidUntil}
	if _, err := rs.AttachGatepass(ctx, rec.ID, dup); !errors.Is(err, store.ErrGatepassExists) {
		t.Fatalf("expected ErrGatepassExists, got %v", err)
	}

	got, _ := rs.Get(ctx, rec.ID)
	if got.Gatepass.PassID != "GP-1111-2026-02-15" {
		t.Errorf("first pass overwritten: %s", got.Gatepass.PassID)
	}
}

func TestRequestStore_AttachGatepass_RequiresApproved(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	rec, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})

	if _, err := rs.AttachGatepass(ctx, rec.ID, types.Gatepass{PassID: "GP-0000-2026-02-15"}); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on pending, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// List
// ═══════════════════════════════════════════════════════════════════════════

func TestRequestStore_List_NewestFirst(t *testing.T) {
	rs := newRequestStore(t)
	ctx := context.Background()

	first, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "First", VisitorPhone: "x", UnitNumber: "101", Purpose: "a",
	})
	second, _ := rs.Create(ctx, store.NewRequest{
		VisitorName: "Second", VisitorPhone: "x", UnitNumber: "102", Purpose: "b",
	})

	records, err := rs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// created_at_ms descending, id as tie-break for same-millisecond rows.
	ids := map[string]bool{records[0].ID: true, records[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Errorf("missing records in list: %v", ids)
	}
	if records[0].CreatedAt.Before(records[1].CreatedAt) {
		t.Error("expected newest first")
	}
}
