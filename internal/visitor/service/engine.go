package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pandasuvm/visitor-management-system/internal/notify"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

const (
	msgNoPending = "I don't have any pending visitor requests for your approval at the moment."
	msgStale     = "Sorry, this visitor request is no longer valid or has expired."
)

// Engine resolves inbound decision events against the pending correlation
// table, applies the resulting state transition exactly once, and produces
// the outbound reply intent.  It is transport-agnostic: every adapter
// normalizes its native message shape into a DecisionEvent and hands it
// here.
type Engine struct {
	requests  store.RequestStore
	pending   *PendingTable
	passes    *GatepassIssuer
	normalize notify.Normalizer
	logger    *log.Logger
}

func NewEngine(
	requests store.RequestStore,
	pending *PendingTable,
	passes *GatepassIssuer,
	normalize notify.Normalizer,
	logger *log.Logger,
) *Engine {
	return &Engine{
		requests:  requests,
		pending:   pending,
		passes:    passes,
		normalize: normalize,
		logger:    logger,
	}
}

// HandleDecision is the single entry point for inbound messages.  A non-nil
// error means storage failed and the mutation must not be assumed to have
// happened; every other input maps to an Outcome.
func (e *Engine) HandleDecision(ctx context.Context, ev types.DecisionEvent) (types.Outcome, error) {
	candidates := e.normalize(ev.ResponderAddress)
	body := strings.ToUpper(strings.TrimSpace(ev.RawText))

	var (
		requestID   string
		decision    types.Decision
		matchedAddr string // correlation key when resolved via the table
		viaTable    bool
		explicit    bool
		sawIntent   bool
	)

	// 1. Structured decision from the transport (button, poll) plus a
	// registered correlation.
	if ev.Decision == types.DecisionApprove || ev.Decision == types.DecisionReject {
		sawIntent = true
		if pc, ok := e.pending.Resolve(candidates); ok {
			requestID = pc.RequestID
			decision = ev.Decision
			matchedAddr = pc.ResponderAddress
			viaTable = true
		}
	}

	// 2. Bare YES/NO plus a registered correlation.
	if requestID == "" && (body == "YES" || body == "NO") {
		sawIntent = true
		if pc, ok := e.pending.Resolve(candidates); ok {
			requestID = pc.RequestID
			decision = types.DecisionReject
			if body == "YES" {
				decision = types.DecisionApprove
			}
			matchedAddr = pc.ResponderAddress
			viaTable = true
		}
	}

	// 3. Legacy "YES <id>" form carrying the request id itself; needs no
	// prior registration.  Only the verb is case-normalized — ids are
	// taken verbatim.
	if requestID == "" {
		if fields := strings.Fields(strings.TrimSpace(ev.RawText)); len(fields) >= 2 {
			switch strings.ToUpper(fields[0]) {
			case "YES":
				requestID, decision, explicit, sawIntent = fields[1], types.DecisionApprove, true, true
			case "NO":
				requestID, decision, explicit, sawIntent = fields[1], types.DecisionReject, true, true
			}
		}
	}

	if requestID == "" {
		if sawIntent {
			return types.Outcome{
				Kind:  types.OutcomeNoPendingRequest,
				Reply: &types.Reply{To: ev.ResponderAddress, Text: msgNoPending},
			}, nil
		}
		return types.Outcome{Kind: types.OutcomeUnrecognized}, nil
	}

	rec, err := e.requests.Get(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return e.stale(viaTable, matchedAddr, ev.ResponderAddress), nil
	}
	if err != nil {
		e.logger.Printf("ERROR decision lookup %s: %v", requestID, err)
		return types.Outcome{}, err
	}
	if rec.Status != types.StatusPending {
		return e.stale(viaTable, matchedAddr, ev.ResponderAddress), nil
	}

	switch decision {
	case types.DecisionApprove:
		rec, err = e.requests.SetApproved(ctx, requestID)
	case types.DecisionReject:
		rec, err = e.requests.SetRejected(ctx, requestID)
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidState) {
		// Another event won the race between our status check and the write.
		return e.stale(viaTable, matchedAddr, ev.ResponderAddress), nil
	}
	if err != nil {
		e.logger.Printf("ERROR decision transition %s: %v", requestID, err)
		return types.Outcome{}, err
	}

	if decision == types.DecisionApprove {
		gp, genErr := e.passes.Generate(rec)
		if genErr != nil {
			e.logger.Printf("ERROR gatepass generate %s: %v", requestID, genErr)
			return types.Outcome{}, genErr
		}
		rec, err = e.requests.AttachGatepass(ctx, requestID, gp)
		if errors.Is(err, store.ErrGatepassExists) {
			rec, err = e.requests.Get(ctx, requestID)
		}
		if err != nil {
			e.logger.Printf("ERROR gatepass attach %s: %v", requestID, err)
			return types.Outcome{}, err
		}
	}

	if viaTable {
		e.pending.Remove(matchedAddr)
	}
	if explicit {
		// Legacy path: clear any correlation keyed on the sender so a
		// stale entry cannot absorb their next YES/NO.
		e.pending.Remove(ev.ResponderAddress)
	}

	return types.Outcome{
		Kind:     types.OutcomeApplied,
		Decision: decision,
		Request:  &rec,
		Reply:    &types.Reply{To: ev.ResponderAddress, Text: confirmationText(decision, rec)},
	}, nil
}

func (e *Engine) stale(viaTable bool, matchedAddr, responder string) types.Outcome {
	if viaTable {
		e.pending.Remove(matchedAddr)
	}
	return types.Outcome{
		Kind:  types.OutcomeStale,
		Reply: &types.Reply{To: responder, Text: msgStale},
	}
}

func confirmationText(decision types.Decision, rec types.VisitorRequest) string {
	if decision == types.DecisionReject {
		return fmt.Sprintf("❌ Visitor %s has been denied entry as requested.", rec.VisitorName)
	}

	validUntil := ""
	if rec.ValidUntil != nil {
		validUntil = rec.ValidUntil.Format("Jan 2, 2006 3:04 PM MST")
	}
	passID := ""
	if rec.Gatepass != nil {
		passID = rec.Gatepass.PassID
	}
	return fmt.Sprintf(
		"✅ Visitor %s has been approved. A gatepass has been generated for security.\n\nGatepass ID: %s\nValid until: %s",
		rec.VisitorName, passID, validUntil,
	)
}
