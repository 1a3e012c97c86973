package types

import "time"

// Gatepass is the immutable credential issued for an approved visitor
// request.  It snapshots the request fields at approval time so the pass
// stays valid even if the directory changes afterwards.
type Gatepass struct {
	PassID       string    `json:"passId"`
	VisitorName  string    `json:"visitorName"`
	VisitorPhone string    `json:"visitorPhone"`
	UnitNumber   string    `json:"unitNumber"`
	Purpose      string    `json:"purpose"`
	PhotoRef     string    `json:"photoRef,omitempty"`
	ApprovedAt   time.Time `json:"approvedAt"`
	ValidUntil   time.Time `json:"validUntil"`
	QRRef        string    `json:"qrRef"` // opaque reference; image generation is out of scope
	GeneratedAt  time.Time `json:"generatedAt"`
}
