package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/zombor/scan-history/internal/auth"
	"github.com/zombor/scan-history/internal/content"
	"github.com/zombor/scan-history/internal/fault"
	"github.com/zombor/scan-history/internal/scan"
)

// State is the machine's position in the scanning lifecycle.
type State string

const (
	StateAwaitingPermission State = "awaiting-permission"
	StateDenied             State = "denied"
	StateReady              State = "ready"
	StatePaused             State = "paused"
	StateScanning           State = "scanning"
	StateSaving             State = "saving"
	StateResultChoice       State = "result-choice"
	StateFailed             State = "failed"
)

// Action is one of the closed set of choices offered to the user. The UI
// renders these however it likes; the machine never assumes a presentation.
type Action string

const (
	ActionViewDetails Action = "view-details"
	ActionScanAnother Action = "scan-another"
	ActionRetry       Action = "retry"
	ActionDismiss     Action = "dismiss"
)

// Status is a point-in-time snapshot of the machine for rendering.
type Status struct {
	State    State
	Actions  []Action
	RecordID string                 // set once a scan has been persisted
	Preview  content.Classification // hint for the last accepted payload
	Failure  fault.Category         // set while in StateFailed
	Message  string
	TorchOn  bool
}

// Machine is the capture state machine for one capture-screen instance.
// At most one persist is in flight at a time: a detection is accepted only
// in StateReady, and acceptance itself moves the machine out of StateReady
// under the lock, so duplicate frames of the same code are ignored until
// the user asks to scan another.
type Machine struct {
	camera Camera
	repo   Repository
	users  auth.Provider
	nav    Navigator

	mu       sync.Mutex
	state    State
	granted  bool
	focused  bool
	cameraOn bool
	torchOn  bool
	preview  content.Classification
	record   *scan.Record
	failure  fault.Category
}

// NewMachine creates a machine in StateAwaitingPermission.
func NewMachine(camera Camera, repo Repository, users auth.Provider, nav Navigator) *Machine {
	return &Machine{
		camera: camera,
		repo:   repo,
		users:  users,
		nav:    nav,
		state:  StateAwaitingPermission,
	}
}

// Start requests camera permission once and, when granted, acquires the
// camera and begins consuming decode events.
func (m *Machine) Start(ctx context.Context) error {
	granted, err := m.camera.RequestPermission(ctx)

	m.mu.Lock()
	if err != nil || !granted {
		m.state = StateDenied
		m.mu.Unlock()
		if err != nil {
			slog.Error("Failed to request camera permission", "error", err)
			return err
		}
		return nil
	}
	m.granted = true
	m.focused = true
	m.state = StateReady
	m.mu.Unlock()

	return m.startCamera(ctx)
}

// Focus reacquires the camera after the screen regains focus, resuming from
// the paused sub-state and discarding anything pending from before the blur.
func (m *Machine) Focus(ctx context.Context) error {
	m.mu.Lock()
	m.focused = true
	if m.state == StatePaused {
		m.state = StateReady
	}
	needStart := m.granted && !m.cameraOn
	m.mu.Unlock()

	if !needStart {
		return nil
	}
	return m.startCamera(ctx)
}

// Blur suspends capture when the screen loses focus. An in-flight persist is
// not cancelled; its result is still applied when it resolves.
func (m *Machine) Blur() error {
	m.mu.Lock()
	m.focused = false
	if m.state == StateReady {
		m.state = StatePaused
	}
	wasOn := m.cameraOn
	m.cameraOn = false
	m.mu.Unlock()

	if !wasOn {
		return nil
	}
	return m.camera.Stop()
}

// Close releases the camera on terminal navigation away.
func (m *Machine) Close() error {
	return m.Blur()
}

func (m *Machine) startCamera(ctx context.Context) error {
	decodes, err := m.camera.Start()
	if err != nil {
		slog.Error("Failed to start camera", "error", err)
		return err
	}

	m.mu.Lock()
	m.cameraOn = true
	m.mu.Unlock()

	go func() {
		for ev := range decodes {
			m.handleDetection(ctx, ev)
		}
	}()
	return nil
}

// handleDetection accepts a decode event only in StateReady, then validates
// and persists the payload. Acceptance and the transition out of StateReady
// happen atomically, which is the whole duplicate-submission guard.
func (m *Machine) handleDetection(ctx context.Context, ev Decode) {
	m.mu.Lock()
	if m.state != StateReady || !m.focused {
		m.mu.Unlock()
		return
	}
	m.state = StateScanning
	m.preview = content.Classify(ev.Data, ev.Type)
	m.mu.Unlock()

	if strings.TrimSpace(ev.Data) == "" || len(ev.Data) > scan.MaxDataLength {
		m.fail(fault.New(fault.Validation, "invalid QR code data"))
		return
	}

	owner, ok := m.users.CurrentUser()
	if !ok {
		m.fail(fault.New(fault.Auth, "you must be logged in to scan QR codes"))
		return
	}

	m.mu.Lock()
	m.state = StateSaving
	m.mu.Unlock()

	record, err := m.repo.Create(ctx, owner, ev.Data, ev.Type)
	if err != nil {
		slog.Error("Failed to save scan", "error", err)
		m.fail(err)
		return
	}

	m.mu.Lock()
	m.state = StateResultChoice
	m.record = record
	m.mu.Unlock()
}

func (m *Machine) fail(err error) {
	category := fault.CategoryOf(err)

	m.mu.Lock()
	m.state = StateFailed
	m.failure = category
	m.mu.Unlock()

	switch category.Navigation() {
	case fault.NavigateLogin:
		m.nav.GoToLogin()
	case fault.NavigateBack:
		m.nav.GoBack()
	}
}

// ScanAnother returns to capture after a successful persist.
func (m *Machine) ScanAnother() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateResultChoice {
		return
	}
	m.record = nil
	m.preview = content.Classification{}
	m.resumeLocked()
}

// ViewDetails signals navigation to the persisted record's detail view.
func (m *Machine) ViewDetails() {
	m.mu.Lock()
	if m.state != StateResultChoice || m.record == nil {
		m.mu.Unlock()
		return
	}
	id := m.record.ID
	m.mu.Unlock()

	m.nav.GoToDetail(id)
}

// Retry returns to capture after a retryable failure so the user can scan
// again. Nothing is re-invoked automatically.
func (m *Machine) Retry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFailed || !m.failure.Retryable() {
		return
	}
	m.failure = ""
	m.resumeLocked()
}

// Dismiss clears a failure and returns to capture.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFailed {
		return
	}
	m.failure = ""
	m.resumeLocked()
}

func (m *Machine) resumeLocked() {
	if m.focused {
		m.state = StateReady
	} else {
		m.state = StatePaused
	}
}

// ToggleTorch flips the torch through the camera boundary.
func (m *Machine) ToggleTorch() error {
	m.mu.Lock()
	target := !m.torchOn
	m.mu.Unlock()

	if err := m.camera.SetTorch(target); err != nil {
		return err
	}

	m.mu.Lock()
	m.torchOn = target
	m.mu.Unlock()
	return nil
}

// Status returns a snapshot for rendering.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		State:   m.state,
		Preview: m.preview,
		TorchOn: m.torchOn,
	}

	switch m.state {
	case StateDenied:
		status.Message = "Camera permission is required to scan QR codes"
	case StateResultChoice:
		status.RecordID = m.record.ID
		status.Actions = []Action{ActionViewDetails, ActionScanAnother}
	case StateFailed:
		status.Failure = m.failure
		status.Message = m.failure.Message()
		if m.failure.Retryable() {
			status.Actions = append(status.Actions, ActionRetry)
		}
		status.Actions = append(status.Actions, ActionDismiss)
	}

	return status
}
