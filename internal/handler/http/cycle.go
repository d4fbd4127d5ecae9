package http

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CycleHandler interface {
	// Lifecycle
	Initiate(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Publish(w http.ResponseWriter, r *http.Request)
	ManagerReview(w http.ResponseWriter, r *http.Request)
	Unfreeze(w http.ResponseWriter, r *http.Request)
	Execute(w http.ResponseWriter, r *http.Request)

	// Payslips
	ListPayslips(w http.ResponseWriter, r *http.Request)
	CorrectPayslip(w http.ResponseWriter, r *http.Request)

	// Audit
	AuditLog(w http.ResponseWriter, r *http.Request)
}

type cycleHandlerImpl struct {
	cycleService cycle.CycleService
}

func NewCycleHandler(cycleService cycle.CycleService) CycleHandler {
	return &cycleHandlerImpl{cycleService: cycleService}
}

// ========== LIFECYCLE ==========

func (h *cycleHandlerImpl) Initiate(w http.ResponseWriter, r *http.Request) {
	var req cycle.InitiateCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.cycleService.Initiate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll cycle initiated", result)
}

func (h *cycleHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.cycleService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *cycleHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := cycle.CycleFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}
	if period := r.URL.Query().Get("period"); period != "" {
		filter.Period = &period
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}

	result, err := h.cycleService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int(math.Ceil(float64(result.TotalCount) / float64(result.Limit)))
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *cycleHandlerImpl) Publish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.cycleService.Publish(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll cycle submitted for manager review", result)
}

func (h *cycleHandlerImpl) ManagerReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	var req cycle.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.cycleService.ManagerReview(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Review decision recorded", result)
}

func (h *cycleHandlerImpl) Unfreeze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	var req cycle.UnfreezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.cycleService.Unfreeze(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll cycle returned to review", result)
}

func (h *cycleHandlerImpl) Execute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.cycleService.Execute(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll cycle executed", result)
}

// ========== PAYSLIPS ==========

func (h *cycleHandlerImpl) ListPayslips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.cycleService.ListPayslips(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *cycleHandlerImpl) CorrectPayslip(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	employeeID := chi.URLParam(r, "employeeID")
	if cycleID == "" || employeeID == "" {
		response.BadRequest(w, "Cycle ID and employee ID are required", nil)
		return
	}

	var req payslip.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.cycleService.CorrectPayslip(r.Context(), cycleID, employeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip corrected", result)
}

// ========== AUDIT ==========

func (h *cycleHandlerImpl) AuditLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	newestFirst := r.URL.Query().Get("order") == "desc"

	result, err := h.cycleService.AuditLog(r.Context(), id, newestFirst)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
