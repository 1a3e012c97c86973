package types

import "time"

// Status is the lifecycle state of a visitor request.  A request starts
// pending and transitions exactly once to approved or rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type VisitorRequest struct {
	ID           string `json:"id"`
	VisitorName  string `json:"visitorName"`
	VisitorPhone string `json:"visitorPhone"`
	UnitNumber   string `json:"unitNumber"`
	Purpose      string `json:"purpose"`
	PhotoRef     string `json:"photoRef,omitempty"` // opaque locator, storage handled elsewhere

	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`

	// Set only when approved.
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	Gatepass   *Gatepass  `json:"gatepass,omitempty"`
}

func (r *VisitorRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *VisitorRequest) IsApproved() bool {
	return r.Status == StatusApproved
}
