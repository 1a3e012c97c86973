package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/service"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

type Dependencies struct {
	Logger   *log.Logger
	Addr     string
	Intake   *service.IntakeService
	Passes   *service.GatepassIssuer
	Requests store.RequestStore
	Units    store.UnitStore

	// Inbound webhook handlers supplied by the transport adapters.
	// Nil handlers are simply not mounted.
	WABridgeInbound   http.HandlerFunc
	TextBridgeInbound http.HandlerFunc
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	intake     *service.IntakeService
	passes     *service.GatepassIssuer
	requests   store.RequestStore
	units      store.UnitStore
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:   d.Logger,
		mux:      mux,
		intake:   d.Intake,
		passes:   d.Passes,
		requests: d.Requests,
		units:    d.Units,
	}

	mux.HandleFunc("POST /v1/visitor_request", s.handleSubmit)
	mux.HandleFunc("GET /v1/visitor_request/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /v1/visitor_request/{id}/gatepass", s.handleGatepass)
	mux.HandleFunc("GET /v1/units", s.handleUnits)
	mux.HandleFunc("GET /v1/admin/visitor_records", s.handleAdminRecords)
	mux.HandleFunc("GET /v1/admin/units", s.handleAdminUnits)
	mux.HandleFunc("PUT /v1/admin/units", s.handleAdminUnitsUpdate)

	if d.WABridgeInbound != nil {
		mux.HandleFunc("POST /v1/inbound/wabridge", d.WABridgeInbound)
	}
	if d.TextBridgeInbound != nil {
		mux.HandleFunc("POST /v1/inbound/textbridge", d.TextBridgeInbound)
	}

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type submitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Notified  bool   `json:"notified"`
	Message   string `json:"message"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub service.Submission
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, notified, err := s.intake.Submit(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSubmission):
			writeError(w, http.StatusBadRequest, "invalid_submission", err.Error())
		case errors.Is(err, store.ErrUnknownUnit):
			writeError(w, http.StatusNotFound, "unknown_unit", "unit number not found in the system")
		default:
			s.logger.Printf("visitor_request error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	msg := "Request submitted and notification sent to resident"
	status := http.StatusCreated
	if !notified {
		msg = "Request submitted, but failed to notify resident. Security will contact them directly."
		status = http.StatusAccepted
	}

	writeJSON(w, status, submitResponse{
		RequestID: rec.ID,
		Status:    string(rec.Status),
		Notified:  notified,
		Message:   msg,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := s.requests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "request not found")
			return
		}
		s.logger.Printf("status error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":     rec.ID,
		"status": string(rec.Status),
	})
}

func (s *Server) handleGatepass(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	gp, err := s.passes.Lookup(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "request not found")
		case errors.Is(err, service.ErrNotApproved):
			writeError(w, http.StatusForbidden, "not_approved", "visit request has not been approved")
		default:
			s.logger.Printf("gatepass error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, gp)
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.units.List(r.Context())
	if err != nil {
		s.logger.Printf("units error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	numbers := make([]string, 0, len(units))
	for _, u := range units {
		numbers = append(numbers, u.UnitNumber)
	}
	writeJSON(w, http.StatusOK, numbers)
}

func (s *Server) handleAdminRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.requests.List(r.Context())
	if err != nil {
		s.logger.Printf("visitor_records error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	if records == nil {
		records = []types.VisitorRequest{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAdminUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.units.List(r.Context())
	if err != nil {
		s.logger.Printf("admin units error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	mapping := make(map[string]string, len(units))
	for _, u := range units {
		mapping[u.UnitNumber] = u.ResidentPhone
	}
	writeJSON(w, http.StatusOK, mapping)
}

func (s *Server) handleAdminUnitsUpdate(w http.ResponseWriter, r *http.Request) {
	var mapping map[string]string
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&mapping); err != nil || len(mapping) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_mapping", "invalid unit mapping data")
		return
	}

	if err := s.units.ReplaceAll(r.Context(), mapping); err != nil {
		s.logger.Printf("admin units update error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "unit mappings updated"})
}
