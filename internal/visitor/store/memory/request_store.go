package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/types"
)

// RequestStore is an in-memory RequestStore for tests and dev environments.
// A single mutex serializes every operation, mirroring the atomicity the
// sqlite implementation gets from the write worker.
type RequestStore struct {
	mu       sync.Mutex
	validity time.Duration
	data     map[string]types.VisitorRequest
}

func NewRequestStore(validity time.Duration) *RequestStore {
	if validity <= 0 {
		validity = store.DefaultValidity
	}
	return &RequestStore{
		validity: validity,
		data:     make(map[string]types.VisitorRequest),
	}
}

func (s *RequestStore) Create(_ context.Context, req store.NewRequest) (types.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := types.VisitorRequest{
		ID:           uuid.NewString(),
		VisitorName:  req.VisitorName,
		VisitorPhone: req.VisitorPhone,
		UnitNumber:   req.UnitNumber,
		Purpose:      req.Purpose,
		PhotoRef:     req.PhotoRef,
		Status:       types.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	s.data[rec.ID] = rec
	return rec, nil
}

func (s *RequestStore) Get(_ context.Context, id string) (types.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok {
		return types.VisitorRequest{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *RequestStore) SetApproved(_ context.Context, id string) (types.VisitorRequest, error) {
	return s.transition(id, types.StatusApproved)
}

func (s *RequestStore) SetRejected(_ context.Context, id string) (types.VisitorRequest, error) {
	return s.transition(id, types.StatusRejected)
}

func (s *RequestStore) transition(id string, to types.Status) (types.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok {
		return types.VisitorRequest{}, store.ErrNotFound
	}
	if rec.Status != types.StatusPending {
		return types.VisitorRequest{}, store.ErrInvalidState
	}

	now := time.Now().UTC()
	rec.Status = to
	rec.DecidedAt = &now
	if to == types.StatusApproved {
		until := now.Add(s.validity)
		rec.ValidUntil = &until
	}

	s.data[id] = rec
	return rec, nil
}

func (s *RequestStore) AttachGatepass(_ context.Context, id string, gp types.Gatepass) (types.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok {
		return types.VisitorRequest{}, store.ErrNotFound
	}
	if rec.Status != types.StatusApproved {
		return types.VisitorRequest{}, store.ErrInvalidState
	}
	if rec.Gatepass != nil {
		return types.VisitorRequest{}, store.ErrGatepassExists
	}

	rec.Gatepass = &gp
	s.data[id] = rec
	return rec, nil
}

func (s *RequestStore) List(_ context.Context) ([]types.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.VisitorRequest, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
