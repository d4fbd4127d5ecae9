package payslip

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// CorrectionRequest is the bounded edit allowed on a draft while the
// owning cycle is in specialist review. Net pay is never accepted from
// the caller; it is re-derived as gross - taxes - deductions. Omitted
// fields keep the portion they govern: taxes falls back to the draft's
// current tax line total, deductions to the current non-tax remainder;
// an explicit deductions value restates the whole withholding beyond
// the stated taxes.
type CorrectionRequest struct {
	GrossPay   *decimal.Decimal `json:"gross_pay,omitempty"`
	Taxes      *decimal.Decimal `json:"taxes,omitempty"`
	Deductions *decimal.Decimal `json:"deductions,omitempty"` // non-tax withholdings
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.GrossPay == nil && r.Taxes == nil && r.Deductions == nil {
		errs = append(errs, validator.ValidationError{Field: "fields", Message: "at least one of gross_pay, taxes, deductions is required"})
	}
	if r.GrossPay != nil && r.GrossPay.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "gross_pay", Message: "must be non-negative"})
	}
	if r.Taxes != nil && r.Taxes.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "taxes", Message: "must be non-negative"})
	}
	if r.Deductions != nil && r.Deductions.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "deductions", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayslipResponse struct {
	ID               string           `json:"id"`
	CycleID          string           `json:"payroll_run_id"`
	EmployeeID       string           `json:"employee_id"`
	EmployeeName     string           `json:"employee_name"`
	BaseSalary       decimal.Decimal  `json:"base_salary"`
	Earnings         EarningsDetail   `json:"earnings_details"`
	Deductions       DeductionsDetail `json:"deductions_details"`
	TotalGrossSalary decimal.Decimal  `json:"total_gross_salary"`
	TotalDeductions  decimal.Decimal  `json:"total_deductions"`
	NetPay           decimal.Decimal  `json:"net_pay"`
	BankStatus       string           `json:"bank_status"`
	Exception        *string          `json:"exception,omitempty"`
	PaymentStatus    string           `json:"payment_status"`
}

func ToResponse(p Payslip) PayslipResponse {
	return PayslipResponse{
		ID:               p.ID,
		CycleID:          p.CycleID,
		EmployeeID:       p.EmployeeID,
		EmployeeName:     p.EmployeeName,
		BaseSalary:       p.BaseSalary,
		Earnings:         p.Earnings,
		Deductions:       p.Deductions,
		TotalGrossSalary: p.TotalGrossSalary,
		TotalDeductions:  p.TotalDeductions,
		NetPay:           p.NetPay,
		BankStatus:       string(p.BankStatus),
		Exception:        p.Exception,
		PaymentStatus:    string(p.PaymentStatus),
	}
}

func ToResponses(payslips []Payslip) []PayslipResponse {
	result := make([]PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		result = append(result, ToResponse(p))
	}
	return result
}
