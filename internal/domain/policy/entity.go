package policy

import "github.com/shopspring/decimal"

// TaxRule applies its rate to the employee's total gross earnings.
type TaxRule struct {
	ID   string
	Name string
	Rate decimal.Decimal // fraction, e.g. 0.08 for 8%
}

// InsuranceBracket matches employees whose base salary falls in
// [SalaryMin, SalaryMax). A nil SalaryMax is open-ended. The
// employee-side rate is applied to the base salary of the matched
// bracket.
type InsuranceBracket struct {
	ID           string
	Name         string
	SalaryMin    decimal.Decimal
	SalaryMax    *decimal.Decimal
	EmployeeRate decimal.Decimal
}

// AllowancePolicy grants a flat amount; GradeID restricts eligibility
// to one pay grade when set.
type AllowancePolicy struct {
	ID      string
	Name    string
	Amount  decimal.Decimal
	GradeID *string
}

// BonusPolicy grants a flat amount; GradeID restricts eligibility to
// one pay grade when set.
type BonusPolicy struct {
	ID      string
	Name    string
	Amount  decimal.Decimal
	GradeID *string
}

// Snapshot is a consistent read of the approved compensation policies
// in effect for one period. It is passed explicitly into every
// calculation so the engine stays deterministic.
type Snapshot struct {
	Period            string
	TaxRules          []TaxRule
	InsuranceBrackets []InsuranceBracket
	AllowancePolicies []AllowancePolicy
	BonusPolicies     []BonusPolicy
}
