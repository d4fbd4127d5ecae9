package calculation

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/policy"
	"github.com/shopspring/decimal"
)

// Engine computes one draft payslip from an employee compensation
// snapshot and a policy snapshot. It is deterministic: no clock, no
// randomness, and identical inputs produce identical output. A missing
// policy bracket never fails the computation; the unresolved component
// is recorded as zero and flagged via the draft's Exception field so
// the anomaly detector can surface it without aborting the batch.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compute builds the draft payslip for a single employee.
//
// Earnings  = base salary + allowances + bonuses + benefits + refunds.
// Deductions = taxes (rate x gross) + insurance (employee-side rate of
// the matched salary bracket) + penalties.
// Monetary totals are rounded to 2 decimal places (half up) once, at
// the final aggregation step; net pay is not clamped to zero.
func (e *Engine) Compute(snap employee.CompensationSnapshot, policies policy.Snapshot) payslip.Payslip {
	earnings := payslip.EarningsDetail{
		BaseSalary: snap.BaseSalary,
		Benefits:   snap.Benefits,
		Refunds:    snap.Refunds,
	}

	gross := snap.BaseSalary
	for _, p := range policies.AllowancePolicies {
		if !appliesToGrade(p.GradeID, snap.GradeID) {
			continue
		}
		earnings.Allowances = append(earnings.Allowances, payslip.PayComponent{Name: p.Name, Amount: p.Amount})
		gross = gross.Add(p.Amount)
	}
	for _, p := range policies.BonusPolicies {
		if !appliesToGrade(p.GradeID, snap.GradeID) {
			continue
		}
		earnings.Bonuses = append(earnings.Bonuses, payslip.PayComponent{Name: p.Name, Amount: p.Amount})
		gross = gross.Add(p.Amount)
	}
	for _, b := range snap.Benefits {
		gross = gross.Add(b.Amount)
	}
	for _, r := range snap.Refunds {
		gross = gross.Add(r.Amount)
	}

	deductions := payslip.DeductionsDetail{Penalties: snap.Penalties}

	totalTaxes := decimal.Zero
	for _, rule := range policies.TaxRules {
		amount := rule.Rate.Mul(gross)
		deductions.Taxes = append(deductions.Taxes, payslip.PayComponent{Name: rule.Name, Amount: amount})
		totalTaxes = totalTaxes.Add(amount)
	}

	var exception *string
	totalInsurance := decimal.Zero
	if len(policies.InsuranceBrackets) > 0 {
		bracket, ok := matchBracket(policies.InsuranceBrackets, snap.BaseSalary)
		if ok {
			amount := bracket.EmployeeRate.Mul(snap.BaseSalary)
			deductions.Insurances = append(deductions.Insurances, payslip.PayComponent{Name: bracket.Name, Amount: amount})
			totalInsurance = amount
		} else {
			msg := fmt.Sprintf("no matching insurance bracket for base salary %s", snap.BaseSalary.StringFixed(2))
			exception = &msg
		}
	}

	totalPenalties := decimal.Zero
	for _, p := range snap.Penalties {
		totalPenalties = totalPenalties.Add(p.Amount)
	}

	totalGross := gross.Round(2)
	totalDeductions := totalTaxes.Add(totalInsurance).Add(totalPenalties).Round(2)

	bankStatus := payslip.BankStatusValid
	if !snap.HasPayoutDestination() {
		bankStatus = payslip.BankStatusMissing
	}

	return payslip.Payslip{
		EmployeeID:       snap.ID,
		EmployeeName:     snap.FullName,
		BaseSalary:       snap.BaseSalary,
		Earnings:         earnings,
		Deductions:       deductions,
		TotalGrossSalary: totalGross,
		TotalDeductions:  totalDeductions,
		NetPay:           totalGross.Sub(totalDeductions),
		BankStatus:       bankStatus,
		Exception:        exception,
		PaymentStatus:    payslip.PaymentStatusPending,
	}
}

func appliesToGrade(policyGrade *string, employeeGrade string) bool {
	return policyGrade == nil || *policyGrade == employeeGrade
}

// matchBracket matches on inclusive lower, exclusive upper bounds; a
// nil upper bound is open-ended.
func matchBracket(brackets []policy.InsuranceBracket, salary decimal.Decimal) (policy.InsuranceBracket, bool) {
	for _, b := range brackets {
		if salary.LessThan(b.SalaryMin) {
			continue
		}
		if b.SalaryMax != nil && salary.GreaterThanOrEqual(*b.SalaryMax) {
			continue
		}
		return b, true
	}
	return policy.InsuranceBracket{}, false
}
