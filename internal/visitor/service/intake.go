package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/pandasuvm/visitor-management-system/internal/notify"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

var ErrInvalidSubmission = errors.New("invalid visitor submission")

var validate = validator.New()

// Submission is a visitor's intake form.  PhotoRef is an opaque locator
// provided by whatever handled the upload.
type Submission struct {
	VisitorName  string `json:"visitor_name" validate:"required"`
	VisitorPhone string `json:"visitor_phone" validate:"required"`
	UnitNumber   string `json:"unit_number" validate:"required"`
	Purpose      string `json:"purpose" validate:"required"`
	PhotoRef     string `json:"photo_ref"`
}

// IntakeService accepts new visitor submissions: it persists the pending
// record, registers the correlation for the unit's resident, and alerts
// them over the gateway.
type IntakeService struct {
	requests  store.RequestStore
	units     store.UnitStore
	pending   *PendingTable
	gateway   notify.Gateway
	normalize notify.Normalizer
	logger    *log.Logger
}

func NewIntakeService(
	requests store.RequestStore,
	units store.UnitStore,
	pending *PendingTable,
	gateway notify.Gateway,
	normalize notify.Normalizer,
	logger *log.Logger,
) *IntakeService {
	return &IntakeService{
		requests:  requests,
		units:     units,
		pending:   pending,
		gateway:   gateway,
		normalize: normalize,
		logger:    logger,
	}
}

// Submit creates the pending request and notifies the resident.  The
// returned bool reports whether the alert went out; a failed send leaves
// the request (and its correlation) in place so the resident can still be
// reached another way.
func (s *IntakeService) Submit(ctx context.Context, sub Submission) (types.VisitorRequest, bool, error) {
	if err := validate.Struct(sub); err != nil {
		return types.VisitorRequest{}, false, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	phone, err := s.units.ResidentPhone(ctx, sub.UnitNumber)
	if err != nil {
		return types.VisitorRequest{}, false, err
	}

	rec, err := s.requests.Create(ctx, store.NewRequest{
		VisitorName:  sub.VisitorName,
		VisitorPhone: sub.VisitorPhone,
		UnitNumber:   sub.UnitNumber,
		Purpose:      sub.Purpose,
		PhotoRef:     sub.PhotoRef,
	})
	if err != nil {
		s.logger.Printf("ERROR intake create: %v", err)
		return types.VisitorRequest{}, false, err
	}

	addr := s.normalize.Canonical(phone)
	s.pending.Register(addr, rec.ID, rec.VisitorName)

	alert := fmt.Sprintf(
		"🏢 Visitor Request Received\n\n👤 Name: %s\n🏠 Unit: %s\n📝 Purpose: %s\n\nReply YES to approve or NO to reject this visitor.",
		rec.VisitorName, rec.UnitNumber, rec.Purpose,
	)

	notified := true
	if err := s.gateway.SendText(ctx, addr, alert); err != nil {
		// Best-effort: the submission stands either way.
		s.logger.Printf("intake alert to %s failed: %v", addr, err)
		notified = false
	}

	return rec, notified, nil
}
