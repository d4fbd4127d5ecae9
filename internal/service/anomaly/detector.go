package anomaly

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
)

// Rule evaluates one draft payslip and returns an anomaly when it
// triggers. Rules are independent and additive: one rule firing never
// suppresses another's evaluation on the same draft.
type Rule interface {
	Evaluate(p payslip.Payslip) *cycle.Anomaly
}

// Detector scans a cycle's drafts against its rule set. Scan is a pure
// function of the drafts passed in; the caller replaces the cycle's
// anomaly list wholesale with the result so corrections cannot leave
// stale entries behind.
type Detector struct {
	rules []Rule
}

// NewDetector returns a detector with the default rule set.
func NewDetector() *Detector {
	return &Detector{rules: []Rule{
		missingBankAccountRule{},
		negativeNetPayRule{},
		calculationExceptionRule{},
		deductionsExceedGrossRule{},
	}}
}

// NewDetectorWithRules returns a detector with a caller-supplied rule set.
func NewDetectorWithRules(rules ...Rule) *Detector {
	return &Detector{rules: rules}
}

func (d *Detector) Scan(drafts []payslip.Payslip) []cycle.Anomaly {
	anomalies := make([]cycle.Anomaly, 0)
	for _, draft := range drafts {
		if draft.Voided {
			continue
		}
		for _, rule := range d.rules {
			if a := rule.Evaluate(draft); a != nil {
				anomalies = append(anomalies, *a)
			}
		}
	}
	return anomalies
}

type missingBankAccountRule struct{}

func (missingBankAccountRule) Evaluate(p payslip.Payslip) *cycle.Anomaly {
	if p.BankStatus != payslip.BankStatusMissing {
		return nil
	}
	return &cycle.Anomaly{
		EmployeeID:   p.EmployeeID,
		EmployeeName: p.EmployeeName,
		Issue:        "Missing bank account",
		Severity:     cycle.SeverityHigh,
	}
}

type negativeNetPayRule struct{}

func (negativeNetPayRule) Evaluate(p payslip.Payslip) *cycle.Anomaly {
	if !p.NetPay.IsNegative() {
		return nil
	}
	return &cycle.Anomaly{
		EmployeeID:   p.EmployeeID,
		EmployeeName: p.EmployeeName,
		Issue:        "Negative net pay",
		Severity:     cycle.SeverityHigh,
	}
}

// calculationExceptionRule surfaces engine-side policy resolution gaps,
// e.g. no insurance bracket matched the employee's salary.
type calculationExceptionRule struct{}

func (calculationExceptionRule) Evaluate(p payslip.Payslip) *cycle.Anomaly {
	if p.Exception == nil || *p.Exception == "" {
		return nil
	}
	return &cycle.Anomaly{
		EmployeeID:   p.EmployeeID,
		EmployeeName: p.EmployeeName,
		Issue:        fmt.Sprintf("Calculation exception: %s", *p.Exception),
		Severity:     cycle.SeverityHigh,
	}
}

type deductionsExceedGrossRule struct{}

func (deductionsExceedGrossRule) Evaluate(p payslip.Payslip) *cycle.Anomaly {
	if p.TotalDeductions.LessThanOrEqual(p.TotalGrossSalary) {
		return nil
	}
	return &cycle.Anomaly{
		EmployeeID:   p.EmployeeID,
		EmployeeName: p.EmployeeName,
		Issue:        "Deductions exceed gross pay",
		Severity:     cycle.SeverityMedium,
	}
}
