package store

import (
	"context"
	"errors"
)

var ErrUnknownUnit = errors.New("unit not found")

type UnitRecord struct {
	UnitNumber    string `json:"unitNumber"`
	ResidentPhone string `json:"residentPhone"`
}

// UnitStore maps unit numbers to the resident phone number that receives
// approval requests for that unit.
type UnitStore interface {
	ResidentPhone(ctx context.Context, unitNumber string) (string, error)
	List(ctx context.Context) ([]UnitRecord, error)

	// ReplaceAll swaps the entire directory for the given mapping.  The
	// admin surface edits the directory wholesale, mirroring how the
	// mapping file was maintained.
	ReplaceAll(ctx context.Context, units map[string]string) error
}
