package store

import (
	"context"
	"errors"
	"time"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

var (
	// ErrNotFound: the referenced request id is unknown.
	ErrNotFound = errors.New("visitor request not found")

	// ErrInvalidState: the requested transition is not allowed from the
	// record's current status.
	ErrInvalidState = errors.New("visitor request is not pending")

	// ErrGatepassExists: AttachGatepass was called on a record that
	// already carries a pass.  Passes are issued at most once.
	ErrGatepassExists = errors.New("gatepass already attached")
)

// NewRequest carries the caller-supplied fields for a visitor submission.
// Everything else (id, status, timestamps) is allocated by the store.
type NewRequest struct {
	VisitorName  string
	VisitorPhone string
	UnitNumber   string
	Purpose      string
	PhotoRef     string
}

// RequestStore owns the durable visitor request collection.  Implementations
// must serialize mutations so that the status check and the write are atomic
// with respect to concurrent callers; any error other than the sentinels
// above means the underlying storage is unavailable and the mutation must
// not be assumed to have happened.
type RequestStore interface {
	Create(ctx context.Context, req NewRequest) (types.VisitorRequest, error)
	Get(ctx context.Context, id string) (types.VisitorRequest, error)

	// SetApproved moves a pending record to approved, stamping decidedAt
	// and validUntil (decidedAt plus the store's validity window).
	SetApproved(ctx context.Context, id string) (types.VisitorRequest, error)
	SetRejected(ctx context.Context, id string) (types.VisitorRequest, error)

	// AttachGatepass stores the issued pass on an approved record.
	AttachGatepass(ctx context.Context, id string, gp types.Gatepass) (types.VisitorRequest, error)

	// List returns all records, newest-created first.
	List(ctx context.Context) ([]types.VisitorRequest, error)
}

// DefaultValidity is how long an approved visit stays valid after the
// resident's decision.
const DefaultValidity = 6 * time.Hour
