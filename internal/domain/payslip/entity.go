package payslip

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankStatus reflects whether the payout channel recorded for the
// employee was usable at calculation time.
type BankStatus string

const (
	BankStatusValid   BankStatus = "valid"
	BankStatusMissing BankStatus = "missing"
)

// PaymentStatus of a payslip; set to paid when the owning cycle executes.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PayComponent is one named line item in a payslip breakdown.
type PayComponent struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// EarningsDetail is the structured earnings breakdown of a draft.
// Adjustments holds manual correction deltas so the breakdown keeps
// summing to TotalGrossSalary after a correction.
type EarningsDetail struct {
	BaseSalary  decimal.Decimal `json:"base_salary"`
	Allowances  []PayComponent  `json:"allowances,omitempty"`
	Bonuses     []PayComponent  `json:"bonuses,omitempty"`
	Benefits    []PayComponent  `json:"benefits,omitempty"`
	Refunds     []PayComponent  `json:"refunds,omitempty"`
	Adjustments []PayComponent  `json:"adjustments,omitempty"`
}

// DeductionsDetail is the structured deductions breakdown of a draft.
// Adjustments holds manual correction deltas so the breakdown keeps
// summing to TotalDeductions after a correction.
type DeductionsDetail struct {
	Taxes       []PayComponent `json:"taxes,omitempty"`
	Insurances  []PayComponent `json:"insurances,omitempty"`
	Penalties   []PayComponent `json:"penalties,omitempty"`
	Adjustments []PayComponent `json:"adjustments,omitempty"`
}

// TaxTotal sums the tax line items of the breakdown.
func (d DeductionsDetail) TaxTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range d.Taxes {
		total = total.Add(t.Amount)
	}
	return total
}

// Payslip is the calculated, not-yet-final compensation record for one
// employee within one cycle. NetPay = TotalGrossSalary - TotalDeductions
// at all times; corrections re-derive it rather than accept a client
// value. Drafts are frozen once the owning cycle leaves UNDER_REVIEW.
type Payslip struct {
	ID               string
	CycleID          string
	EmployeeID       string
	EmployeeName     string
	BaseSalary       decimal.Decimal
	Earnings         EarningsDetail
	Deductions       DeductionsDetail
	TotalGrossSalary decimal.Decimal
	TotalDeductions  decimal.Decimal // taxes + insurances + penalties
	NetPay           decimal.Decimal
	BankStatus       BankStatus
	Exception        *string // set by the engine when a policy could not be resolved
	PaymentStatus    PaymentStatus
	Voided           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
