// Package textbridge adapts a plain text messaging bridge (SMS gateway or
// similar) to the approval core.  The channel carries only text: residents
// decide by replying YES or NO, there are no buttons.
package textbridge

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
	SendURL string
	Token   string
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
	To      string `json:"to"`
	Message string `json:"message"`
}

func (b *Bridge) SendText(ctx context.Context, address, text string) error {
	if b.cfg.SendURL == "" {
		return errors.New("textbridge: send url not configured")
	}

	body, err := json.Marshal(sendRequest{To: address, Message: text})
	if err != nil {
		return fmt.Errorf("textbridge encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.SendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("textbridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.Token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("textbridge send: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("textbridge send: bridge returned %d", resp.StatusCode)
	}
	return nil
}

type inboundMessage struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

func (b *Bridge) HandleInbound(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&msg); err != nil || msg.Sender == "" {
		http.Error(w, "invalid bridge payload", http.StatusBadRequest)
		return
	}

	out, err := b.engine.HandleDecision(r.Context(), types.DecisionEvent{
		ResponderAddress: msg.Sender,
		RawText:          msg.Body,
	})
	if err != nil {
		http.Error(w, "decision handling failed", http.StatusInternalServerError)
		return
	}

	if out.Reply != nil {
		if err := b.SendText(r.Context(), out.Reply.To, out.Reply.Text); err != nil {
			b.logger.Printf("textbridge reply to %s failed: %v", out.Reply.To, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"outcome": string(out.Kind)})
}
