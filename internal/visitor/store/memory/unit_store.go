package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pandasuvm/visitor-management-system/internal/visitor/store"
)

type UnitStore struct {
	mu    sync.RWMutex
	units map[string]string
}

func NewUnitStore(units map[string]string) *UnitStore {
	u := make(map[string]string, len(units))
	for unit, phone := range units {
		unit = strings.TrimSpace(unit)
		phone = strings.TrimSpace(phone)
		if unit != "" && phone != "" {
			u[unit] = phone
		}
	}
	return &UnitStore{units: u}
}

func (s *UnitStore) ResidentPhone(_ context.Context, unitNumber string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phone, ok := s.units[strings.TrimSpace(unitNumber)]
	if !ok {
		return "", store.ErrUnknownUnit
	}
	return phone, nil
}

func (s *UnitStore) List(_ context.Context) ([]store.UnitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.UnitRecord, 0, len(s.units))
	for unit, phone := range s.units {
		out = append(out, store.UnitRecord{UnitNumber: unit, ResidentPhone: phone})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out, nil
}

func (s *UnitStore) ReplaceAll(_ context.Context, units map[string]string) error {
	next := make(map[string]string, len(units))
	for unit, phone := range units {
		unit = strings.TrimSpace(unit)
		phone = strings.TrimSpace(phone)
		if unit != "" && phone != "" {
			next[unit] = phone
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = next
	return nil
}
