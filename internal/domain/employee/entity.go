package employee

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/shopspring/decimal"
)

// CompensationSnapshot is the read the calculation engine works from:
// current base compensation plus the recurring one-off items already
// approved against the employee (benefits, refunds, penalties come from
// their own record-keeping flows and are consumed here as line items).
// The payout destination may be empty; that is a signal for the anomaly
// detector, not a precondition failure.
type CompensationSnapshot struct {
	ID                string
	FullName          string
	BaseSalary        decimal.Decimal
	BankName          string
	BankAccountNumber string
	GradeID           string
	DepartmentID      string
	Benefits          []payslip.PayComponent
	Refunds           []payslip.PayComponent
	Penalties         []payslip.PayComponent
}

// HasPayoutDestination reports whether the employee can actually be
// paid through the recorded bank channel.
func (s CompensationSnapshot) HasPayoutDestination() bool {
	return s.BankAccountNumber != ""
}
