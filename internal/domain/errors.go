package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy in spec.md §7. The typed errors below
// unwrap to these sentinels so callers can errors.Is/errors.As. None of
// them crosses the IPC boundary as a Go error value — the kernel turns
// every failure into a structured notification on the error channel, and
// the coordinator forwards that notification's message text to clients
// without turning it back into a Go error.
var (
	ErrCycleDetected      = errors.New("cycle detected")
	ErrCellNotRegistered  = errors.New("cell not registered")
	ErrMissingSQLVariable = errors.New("missing sql template variable")
	ErrKernelDead         = errors.New("kernel process is dead")
)

// CycleError names the two endpoints of the prospective edge that would
// have closed a cycle, per spec §4.2 step 2 ("identifying U and V").
type CycleError struct {
	From string
	To   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: adding edge %s -> %s would close a cycle", e.From, e.To)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// NotRegisteredError names the cell an execute request referenced that has
// no node in the registry.
type NotRegisteredError struct {
	CellID string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("cell %s is not registered", e.CellID)
}

func (e *NotRegisteredError) Unwrap() error { return ErrCellNotRegistered }

// MissingVariableError names the SQL template placeholder that had no
// binding in the kernel namespace.
type MissingVariableError struct {
	CellID   string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("cell %s: variable %q is not defined in the namespace", e.CellID, e.Variable)
}

func (e *MissingVariableError) Unwrap() error { return ErrMissingSQLVariable }
