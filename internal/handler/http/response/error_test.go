package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleError_ValidationErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HandleError(rec, validator.ValidationErrors{
		{Field: "period", Message: "must be in YYYY-MM format"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "must be in YYYY-MM format", resp.Error.Details["period"])
}

func TestHandleError_InvalidTransitionCarriesCurrentState(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HandleError(rec, &cycle.InvalidTransitionError{
		Current:   cycle.StatusExecuted,
		Attempted: cycle.StatusReviewingByManager,
		Action:    cycle.ActionPublish,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(cycle.StatusExecuted), resp.Error.Details["current_state"])
}

func TestHandleError_StateWrappedRejectionsCarryCurrentState(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		current cycle.Status
	}{
		{
			name:    "anomalies block publish",
			err:     &cycle.CycleStateError{Err: fmt.Errorf("%w: 1 anomalies open", cycle.ErrAnomaliesUnresolved), Current: cycle.StatusUnderReview},
			current: cycle.StatusUnderReview,
		},
		{
			name:    "frozen cycle correction",
			err:     &cycle.CycleStateError{Err: cycle.ErrCycleNotEditable, Current: cycle.StatusExecuted},
			current: cycle.StatusExecuted,
		},
		{
			name:    "concurrent transition conflict",
			err:     &cycle.CycleStateError{Err: cycle.ErrCycleConflict, Current: cycle.StatusWaitingFinanceApproval},
			current: cycle.StatusWaitingFinanceApproval,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			HandleError(rec, tc.err)

			assert.Equal(t, http.StatusConflict, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "CONFLICT", resp.Error.Code)
			assert.Equal(t, string(tc.current), resp.Error.Details["current_state"])
		})
	}
}

func TestHandleError_Sentinels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{cycle.ErrCycleNotFound, http.StatusNotFound},
		{payslip.ErrPayslipNotFound, http.StatusNotFound},
		{cycle.ErrPeriodAlreadyActive, http.StatusConflict},
		{cycle.ErrReasonRequired, http.StatusBadRequest},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		HandleError(rec, tc.err)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}
