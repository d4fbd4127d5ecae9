package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Illegal lifecycle transitions carry the cycle's current state so
	// the client can resync without a follow-up read.
	var transitionErr *cycle.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		ConflictWithDetails(w, transitionErr.Error(), map[string]string{
			"current_state": string(transitionErr.Current),
		})
		return
	}

	var roleErr *cycle.ActionNotAllowedError
	if errors.As(err, &roleErr) {
		Forbidden(w, roleErr.Error())
		return
	}

	// Precondition and conflict rejections wrapped with the cycle's
	// current status carry it the same way, so the UI can resync
	// without a follow-up read.
	var stateErr *cycle.CycleStateError
	if errors.As(err, &stateErr) {
		ConflictWithDetails(w, stateErr.Error(), map[string]string{
			"current_state": string(stateErr.Current),
		})
		return
	}

	switch {
	case errors.Is(err, user.ErrNoActor):
		Unauthorized(w, "Authentication required")

	// Cycle domain errors
	case errors.Is(err, cycle.ErrCycleNotFound):
		NotFound(w, "Payroll cycle not found")
	case errors.Is(err, cycle.ErrPeriodAlreadyActive):
		Conflict(w, "A payroll cycle already exists for this period")
	case errors.Is(err, cycle.ErrChecklistUnresolved):
		Conflict(w, err.Error())
	case errors.Is(err, cycle.ErrAnomaliesUnresolved):
		Conflict(w, "All anomalies must be resolved before publishing")
	case errors.Is(err, cycle.ErrCycleNotEditable):
		Conflict(w, err.Error())
	case errors.Is(err, cycle.ErrCycleConflict):
		Conflict(w, "Payroll cycle was modified concurrently, please retry")
	case errors.Is(err, cycle.ErrReasonRequired):
		BadRequest(w, "A reason is required", nil)

	// Payslip domain errors
	case errors.Is(err, payslip.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
