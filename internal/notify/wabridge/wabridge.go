// Package wabridge adapts a WhatsApp bridge service to the approval core.
// The bridge owns the actual WhatsApp session; this side only exchanges
// JSON webhooks with it.  Inbound messages may carry a button reply,
// which becomes a structured decision.
package wabridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/service"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

type Config struct {
	SendURL string // bridge endpoint accepting outbound sends
	Token   string // bearer token for the bridge, optional
}

type Bridge struct {
	engine *service.Engine
	cfg    Config
	client *http.Client
	logger *log.Logger
}

func New(engine *service.Engine, cfg Config, logger *log.Logger) *Bridge {
	return &Bridge{
		engine: engine,
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SendText posts an outbound message to the bridge.
func (b *Bridge) SendText(ctx context.Context, address, text string) error {
	if b.cfg.SendURL == "" {
		return errors.New("wabridge: send url not configured")
	}

	body, err := json.Marshal(sendRequest{To: address, Text: text})
	if err != nil {
		return fmt.Errorf("wabridge encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.SendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("wabridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.Token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("wabridge send: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("wabridge send: bridge returned %d", resp.StatusCode)
	}
	return nil
}

// inboundMessage is the bridge's webhook payload for a received message.
// ButtonID is set when the resident tapped an approval button instead of
// typing.
type inboundMessage struct {
	From     string `json:"from"`
	Text     string `json:"text,omitempty"`
	ButtonID string `json:"button_id,omitempty"` // "approve" | "reject"
}

// HandleInbound is the webhook endpoint the bridge posts received
// messages to.  The reply, if any, is sent back through the bridge
// best-effort: a failed send never undoes the decision.
func (b *Bridge) HandleInbound(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&msg); err != nil || msg.From == "" {
		http.Error(w, "invalid bridge payload", http.StatusBadRequest)
		return
	}

	ev := types.DecisionEvent{
		ResponderAddress: msg.From,
		RawText:          msg.Text,
	}
	switch msg.ButtonID {
	case "approve":
		ev.Decision = types.DecisionApprove
	case "reject":
		ev.Decision = types.DecisionReject
	}

	out, err := b.engine.HandleDecision(r.Context(), ev)
	if err != nil {
		http.Error(w, "decision handling failed", http.StatusInternalServerError)
		return
	}

	if out.Reply != nil {
		if err := b.SendText(r.Context(), out.Reply.To, out.Reply.Text); err != nil {
			b.logger.Printf("wabridge reply to %s failed: %v", out.Reply.To, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"outcome": string(out.Kind)})
}
