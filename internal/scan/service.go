package scan

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/scan-history/internal/auth"
	"github.com/zombor/scan-history/internal/fault"
)

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service is the scan repository. It validates payloads before any store
// call, assigns IDs and timestamps on creation, enforces per-owner
// visibility on every read, and classifies store failures into the fault
// taxonomy exactly once.
type Service struct {
	db          DB
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB) *Service {
	return &Service{
		db:          db,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Create validates and persists a decoded payload for an owner. The payload
// is rejected before any store call when empty or over MaxDataLength.
func (s *Service) Create(ctx context.Context, owner auth.Identity, data, rawType string) (*Record, error) {
	if owner.ID == "" {
		return nil, fault.New(fault.Auth, "you must be logged in to save scans")
	}

	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, fault.New(fault.Validation, "scan payload is empty")
	}
	if len(data) > MaxDataLength {
		return nil, fault.New(fault.Validation, "scan payload is too long")
	}

	record := &Record{
		ID:         s.idGenerator.Generate(),
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		Data:       trimmed,
		Type:       rawType,
		ScannedAt:  s.timeSource.Now(),
	}

	if err := s.db.SaveScan(record); err != nil {
		return nil, fault.Wrap(fault.Service, "saving scan", err)
	}

	return record, nil
}

// GetByID retrieves a single record, failing with a permission fault when
// the record exists but belongs to a different owner. That case is kept
// distinct from a genuinely missing record, which is a not-found fault.
func (s *Service) GetByID(ctx context.Context, owner auth.Identity, id string) (*Record, error) {
	if owner.ID == "" {
		return nil, fault.New(fault.Auth, "you must be logged in to view scans")
	}

	record, err := s.db.GetScan(id)
	if err != nil {
		if errors.Is(err, ErrScanNotFound) {
			return nil, fault.Wrap(fault.NotFound, "getting scan", err)
		}
		return nil, fault.Wrap(fault.Service, "getting scan", err)
	}

	if record.OwnerID != owner.ID {
		return nil, fault.New(fault.Permission, "scan belongs to a different owner")
	}

	return record, nil
}

// List returns the owner's records ordered by scan time. An owner with no
// records gets an empty sequence, not an error.
func (s *Service) List(ctx context.Context, owner auth.Identity, order SortOrder) ([]*Record, error) {
	if owner.ID == "" {
		return nil, fault.New(fault.Auth, "you must be logged in to view scan history")
	}

	records, err := s.db.ListScans(owner.ID, order)
	if err != nil {
		return nil, fault.Wrap(fault.Service, "listing scans", err)
	}
	if records == nil {
		records = []*Record{}
	}
	return records, nil
}
