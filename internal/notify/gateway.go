// Package notify defines the boundary between the approval core and
// whatever messaging channel reaches residents.  The core only needs a
// transport that can send (address, text) and can deliver inbound
// messages as normalized decision events; each transport adapter lives
// in a subpackage.
package notify

import (
	"context"
	"log"
)

// Gateway sends outbound text to a responder address.  Delivery is
// best-effort from the core's perspective: a failed send never rolls
// back the state transition that prompted it.
type Gateway interface {
	SendText(ctx context.Context, address, text string) error
}

// LogOnly is a Gateway that records sends in the server log instead of
// transmitting.  Used when no bridge is configured (dev setups).
type LogOnly struct {
	logger *log.Logger
}

func NewLogOnly(logger *log.Logger) *LogOnly {
	return &LogOnly{logger: logger}
}

func (g *LogOnly) SendText(_ context.Context, address, text string) error {
	g.logger.Printf("notify (log-only) to=%s: %s", address, text)
	return nil
}
