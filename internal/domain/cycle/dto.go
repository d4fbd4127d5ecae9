package cycle

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type InitiateCycleRequest struct {
	Period string `json:"period"` // "YYYY-MM"
}

func (r *InitiateCycleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Period) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "is required"})
	} else if !validator.IsValidPeriod(r.Period) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be in YYYY-MM format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

const (
	ReviewDecisionApproved = "approved"
	ReviewDecisionRejected = "rejected"
)

type ReviewRequest struct {
	Decision string  `json:"decision"` // "approved" or "rejected"
	Reason   *string `json:"reason,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Decision != ReviewDecisionApproved && r.Decision != ReviewDecisionRejected {
		errs = append(errs, validator.ValidationError{Field: "decision", Message: "must be 'approved' or 'rejected'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UnfreezeRequest struct {
	Reason string `json:"reason"`
}

type SummaryResponse struct {
	TotalEmployees  int             `json:"total_employees"`
	TotalGrossPay   decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetPay     decimal.Decimal `json:"total_net_pay"`
}

type AnomalyResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Issue        string `json:"issue"`
	Severity     string `json:"severity"`
}

type AuditEntryResponse struct {
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	Details   *string   `json:"details,omitempty"`
}

type CycleResponse struct {
	ID        string               `json:"id"`
	Period    string               `json:"period"`
	Status    string               `json:"status"`
	Summary   SummaryResponse      `json:"summary"`
	Anomalies []AnomalyResponse    `json:"anomalies"`
	AuditLog  []AuditEntryResponse `json:"audit_log,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type CycleFilter struct {
	Status *string `json:"status,omitempty"`
	Period *string `json:"period,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type ListCycleResponse struct {
	Data       []CycleResponse `json:"data"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

func ToResponse(c PayrollCycle) CycleResponse {
	anomalies := make([]AnomalyResponse, 0, len(c.Anomalies))
	for _, a := range c.Anomalies {
		anomalies = append(anomalies, AnomalyResponse{
			EmployeeID:   a.EmployeeID,
			EmployeeName: a.EmployeeName,
			Issue:        a.Issue,
			Severity:     string(a.Severity),
		})
	}

	return CycleResponse{
		ID:     c.ID,
		Period: c.Period,
		Status: string(c.Status),
		Summary: SummaryResponse{
			TotalEmployees:  c.Summary.TotalEmployees,
			TotalGrossPay:   c.Summary.TotalGrossPay,
			TotalDeductions: c.Summary.TotalDeductions,
			TotalNetPay:     c.Summary.TotalNetPay,
		},
		Anomalies: anomalies,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ToAuditResponses(entries []AuditEntry) []AuditEntryResponse {
	result := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, AuditEntryResponse{
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			ActorRole: string(e.ActorRole),
			Action:    string(e.Action),
			Details:   e.Details,
		})
	}
	return result
}
