// Package capture governs one device's scanning lifecycle: camera
// permission, focus-scoped camera ownership, debounced acceptance of decode
// events, and a single in-flight persist per screen instance.
package capture

import (
	"context"

	"github.com/zombor/scan-history/internal/auth"
	"github.com/zombor/scan-history/internal/scan"
)

// Decode is a single successful read of a QR symbol.
type Decode struct {
	Type string // scanner-reported symbology label
	Data string
}

// Camera is the device camera boundary. Start hands the caller the decode
// event stream; Stop closes that stream and releases the device. The
// machine is the sole consumer.
type Camera interface {
	// RequestPermission asks the user for camera access
	RequestPermission(ctx context.Context) (bool, error)

	// Start acquires the camera and returns its decode event stream
	Start() (<-chan Decode, error)

	// Stop releases the camera and closes the stream returned by Start
	Stop() error

	// SetTorch turns the torch on or off
	SetTorch(on bool) error
}

// Navigator receives navigation intents. The machine signals where to go;
// it never renders or owns screen transitions.
type Navigator interface {
	GoToLogin()
	GoToDetail(id string)
	GoBack()
}

// Repository persists accepted scans.
type Repository interface {
	Create(ctx context.Context, owner auth.Identity, data, rawType string) (*scan.Record, error)
}

// Service satisfies Repository.
var _ Repository = (*scan.Service)(nil)
