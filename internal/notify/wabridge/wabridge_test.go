package wabridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pandasuvm/visitor-management-system/internal/notify"
	"github.com/pandasuvm/visitor-management-system/internal/notify/wabridge"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/service"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store/memory"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestEngine(t *testing.T) (*service.Engine, *memory.RequestStore, *service.PendingTable) {
	t.Helper()

	requests := memory.NewRequestStore(6 * time.Hour)
	pending := service.NewPendingTable()
	passes := service.NewGatepassIssuer(requests)
	return service.NewEngine(requests, pending, passes, notify.WhatsAppJID, silentLogger()), requests, pending
}

func TestSendText_PostsToBridge(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer bridge.Close()

	eng, _, _ := newTestEngine(t)
	b := wabridge.New(eng, wabridge.Config{SendURL: bridge.URL, Token: "secret"}, silentLogger())

	err := b.SendText(context.Background(), "917781943246@s.whatsapp.net", "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotBody["to"] != "917781943246@s.whatsapp.net" || gotBody["text"] != "hello" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestSendText_BridgeError(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bridge.Close()

	eng, _, _ := newTestEngine(t)
	b := wabridge.New(eng, wabridge.Config{SendURL: bridge.URL}, silentLogger())

	if err := b.SendText(context.Background(), "x", "y"); err == nil {
		t.Fatal("expected an error on a non-2xx bridge response")
	}
}

func TestSendText_Unconfigured(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	b := wabridge.New(eng, wabridge.Config{}, silentLogger())

	if err := b.SendText(context.Background(), "x", "y"); err == nil {
		t.Fatal("expected an error without a send url")
	}
}

func TestHandleInbound_RepliesThroughBridge(t *testing.T) {
	var replies []map[string]string
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		replies = append(replies, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer bridge.Close()

	eng, requests, pending := newTestEngine(t)
	b := wabridge.New(eng, wabridge.Config{SendURL: bridge.URL}, silentLogger())

	rec, err := requests.Create(context.Background(), store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pending.Register("917781943246@s.whatsapp.net", rec.ID, rec.VisitorName)

	req := httptest.NewRequest(http.MethodPost, "/v1/inbound/wabridge",
		strings.NewReader(`{"from":"917781943246@s.whatsapp.net","button_id":"approve"}`))
	rr := httptest.NewRecorder()
	b.HandleInbound(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var outcome map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome["outcome"] != "applied" {
		t.Fatalf("expected applied, got %q", outcome["outcome"])
	}

	if len(replies) != 1 {
		t.Fatalf("expected 1 reply through the bridge, got %d", len(replies))
	}
	if replies[0]["to"] != "917781943246@s.whatsapp.net" {
		t.Errorf("reply to %s", replies[0]["to"])
	}
	if !strings.Contains(replies[0]["text"], "approved") {
		t.Errorf("unexpected reply text: %q", replies[0]["text"])
	}
}

// brokenRequestStore fails every lookup with a non-sentinel error, as an
// unreachable database would.
type brokenRequestStore struct {
	store.RequestStore
}

func (brokenRequestStore) Get(context.Context, string) (types.VisitorRequest, error) {
	return types.VisitorRequest{}, errors.New("database is locked")
}

func TestHandleInbound_StorageFailure_500(t *testing.T) {
	requests := memory.NewRequestStore(6 * time.Hour)
	broken := brokenRequestStore{RequestStore: requests}
	pending := service.NewPendingTable()
	pending.Register("917781943246@s.whatsapp.net", "req-1", "John")
	eng := service.NewEngine(broken, pending, service.NewGatepassIssuer(broken), notify.WhatsAppJID, silentLogger())
	b := wabridge.New(eng, wabridge.Config{}, silentLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/inbound/wabridge",
		strings.NewReader(`{"from":"917781943246@s.whatsapp.net","text":"YES"}`))
	rr := httptest.NewRecorder()
	b.HandleInbound(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on storage failure, got %d", rr.Code)
	}
}

func TestHandleInbound_ReplySendFailureStillOK(t *testing.T) {
	eng, requests, pending := newTestEngine(t)
	// No SendURL: the reply send fails after the decision is applied.
	b := wabridge.New(eng, wabridge.Config{}, silentLogger())

	rec, _ := requests.Create(context.Background(), store.NewRequest{
		VisitorName: "John", VisitorPhone: "x", UnitNumber: "101", Purpose: "visit",
	})
	pending.Register("917781943246@s.whatsapp.net", rec.ID, rec.VisitorName)

	req := httptest.NewRequest(http.MethodPost, "/v1/inbound/wabridge",
		strings.NewReader(`{"from":"917781943246@c.us","text":"YES"}`))
	rr := httptest.NewRecorder()
	b.HandleInbound(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 despite reply failure, got %d", rr.Code)
	}

	stored, _ := requests.Get(context.Background(), rec.ID)
	if !stored.IsApproved() {
		t.Error("decision should stand even when the reply cannot be delivered")
	}
}
