package cycle

import (
	"errors"
	"fmt"
)

var (
	ErrCycleNotFound       = errors.New("payroll cycle not found")
	ErrPeriodAlreadyActive = errors.New("a payroll cycle already exists for this period")
	ErrChecklistUnresolved = errors.New("pre-run checklist has unresolved checks")
	ErrAnomaliesUnresolved = errors.New("cycle has unresolved anomalies, cannot publish")
	ErrReasonRequired      = errors.New("a non-empty reason is required for this action")
	ErrCycleNotEditable    = errors.New("cycle not editable")
	ErrCycleConflict       = errors.New("cycle was modified concurrently, retry against current state")
)

// CycleStateError decorates a precondition or conflict sentinel with
// the cycle's current status so rejected actions can return the
// authoritative state alongside the reason. errors.Is against the
// wrapped sentinel keeps working through Unwrap.
type CycleStateError struct {
	Err     error
	Current Status
}

func (e *CycleStateError) Error() string {
	return fmt.Sprintf("%s (cycle is %s)", e.Err.Error(), e.Current)
}

func (e *CycleStateError) Unwrap() error {
	return e.Err
}
