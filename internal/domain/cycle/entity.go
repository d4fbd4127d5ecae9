package cycle

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Status of a payroll cycle. Transitions are restricted to the table in
// machine.go; anything else is a programming error surfaced as an
// InvalidTransitionError.
type Status string

const (
	StatusUnderReview            Status = "UNDER_REVIEW"
	StatusReviewingByManager     Status = "REVIEWING_BY_MANAGER"
	StatusWaitingFinanceApproval Status = "WAITING_FINANCE_APPROVAL"
	StatusExecuted               Status = "EXECUTED"
	StatusRejected               Status = "REJECTED"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusExecuted || s == StatusRejected
}

// Editable reports whether drafts belonging to a cycle in this status
// may still be corrected.
func (s Status) Editable() bool {
	return s == StatusUnderReview
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Anomaly is a detected integrity or risk condition on a draft payslip.
// Anomalies are cycle-scoped and fully regenerated on every detector
// run; they are never edited by hand.
type Anomaly struct {
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Issue        string   `json:"issue"`
	Severity     Severity `json:"severity"`
}

// Summary aggregates all non-voided draft payslips of a cycle. It is
// recomputed whenever a draft changes, in the same transaction.
type Summary struct {
	TotalEmployees  int             `json:"total_employees"`
	TotalGrossPay   decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetPay     decimal.Decimal `json:"total_net_pay"`
}

// PayrollCycle is the aggregate root: one payroll run for one period.
// Version implements the optimistic per-cycle serialization check; every
// state-changing update must carry the version it read.
type PayrollCycle struct {
	ID        string
	Period    string // "YYYY-MM", unique
	Status    Status
	Summary   Summary
	Anomalies []Anomaly
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditEntry is one immutable record in a cycle's audit log. Append
// order is the canonical record of what happened when.
type AuditEntry struct {
	ID        string
	CycleID   string
	Seq       int64
	Timestamp time.Time
	ActorID   string
	ActorName string
	ActorRole user.Role
	Action    Action
	Details   *string
}
