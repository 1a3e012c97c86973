package types

// Decision is a resident's verdict on a pending visitor request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// DecisionEvent is the normalized shape every transport adapter must
// produce for an inbound message.  Decision is set only when the
// transport carries an explicit signal (button press, poll vote);
// otherwise the raw text is parsed.
type DecisionEvent struct {
	ResponderAddress string
	RawText          string
	Decision         Decision // "" when the message is free-form text
}

type OutcomeKind string

const (
	// OutcomeApplied: a state transition happened.
	OutcomeApplied OutcomeKind = "applied"
	// OutcomeStale: the referenced request no longer exists or was
	// already decided.
	OutcomeStale OutcomeKind = "stale"
	// OutcomeNoPendingRequest: a YES/NO was understood but there is no
	// outstanding request for the sender.
	OutcomeNoPendingRequest OutcomeKind = "no_pending_request"
	// OutcomeUnrecognized: the message is not a decision at all.
	OutcomeUnrecognized OutcomeKind = "unrecognized"
)

// Reply is an outbound notification intent.  The engine never transmits
// it; the transport adapter that delivered the event is responsible for
// sending (and for its own retry policy).
type Reply struct {
	To   string
	Text string
}

type Outcome struct {
	Kind     OutcomeKind
	Decision Decision        // set when Kind == OutcomeApplied
	Request  *VisitorRequest // set when Kind == OutcomeApplied
	Reply    *Reply          // nil when no user-facing message is warranted
}
