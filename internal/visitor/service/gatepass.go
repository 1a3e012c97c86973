package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

var ErrNotApproved = errors.New("visit request has not been approved")

// sampleQRRef stands in for a generated QR image; producing the actual
// code is outside this core.
const sampleQRRef = "/qr/sample-qr.png"

// GatepassIssuer produces the pass artifact for approved requests and
// serves idempotent pass reads.
type GatepassIssuer struct {
	requests store.RequestStore
}

func NewGatepassIssuer(requests store.RequestStore) *GatepassIssuer {
	return &GatepassIssuer{requests: requests}
}

// Generate derives a fresh Gatepass from an approved request.  Pure aside
// from the clock and pass-id draw.  Callers must attach the result via the
// store, which enforces that a request is ever issued at most one pass.
func (g *GatepassIssuer) Generate(rec types.VisitorRequest) (types.Gatepass, error) {
	if rec.Status != types.StatusApproved || rec.DecidedAt == nil || rec.ValidUntil == nil {
		return types.Gatepass{}, ErrNotApproved
	}

	now := time.Now().UTC()
	return types.Gatepass{
		// Human-scannable, not globally unique: a 4-digit draw plus the
		// issue date is enough for the security desk to read back.
		PassID:       fmt.Sprintf("GP-%04d-%s", 1000+rand.IntN(9000), now.Format("2006-01-02")),
		VisitorName:  rec.VisitorName,
		VisitorPhone: rec.VisitorPhone,
		UnitNumber:   rec.UnitNumber,
		Purpose:      rec.Purpose,
		PhotoRef:     rec.PhotoRef,
		ApprovedAt:   *rec.DecidedAt,
		ValidUntil:   *rec.ValidUntil,
		QRRef:        sampleQRRef,
		GeneratedAt:  now,
	}, nil
}

// Lookup returns the pass for an approved request.  The stored pass is
// served when present; an approved record without one (data that predates
// pass persistence) gets a pass generated and attached once, then the
// stored copy thereafter.
func (g *GatepassIssuer) Lookup(ctx context.Context, id string) (types.Gatepass, error) {
	rec, err := g.requests.Get(ctx, id)
	if err != nil {
		return types.Gatepass{}, err
	}
	if rec.Status != types.StatusApproved {
		return types.Gatepass{}, ErrNotApproved
	}
	if rec.Gatepass != nil {
		return *rec.Gatepass, nil
	}

	gp, err := g.Generate(rec)
	if err != nil {
		return types.Gatepass{}, err
	}

	rec, err = g.requests.AttachGatepass(ctx, id, gp)
	if errors.Is(err, store.ErrGatepassExists) {
		// Lost a race with another reader; serve whoever won.
		rec, err = g.requests.Get(ctx, id)
		if err != nil {
			return types.Gatepass{}, err
		}
		if rec.Gatepass == nil {
			return types.Gatepass{}, store.ErrGatepassExists
		}
		return *rec.Gatepass, nil
	}
	if err != nil {
		return types.Gatepass{}, err
	}
	return *rec.Gatepass, nil
}
