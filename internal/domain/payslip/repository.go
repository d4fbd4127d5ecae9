package payslip

import "context"

// PayslipRepository defines data access for draft payslips. Drafts are
// created in bulk at cycle initiation and mutated only through the
// correction sub-workflow.
type PayslipRepository interface {
	CreateBatch(ctx context.Context, payslips []Payslip) error
	GetByCycleAndEmployee(ctx context.Context, cycleID, employeeID string) (Payslip, error)
	ListByCycleID(ctx context.Context, cycleID string) ([]Payslip, error)
	Update(ctx context.Context, p Payslip) (Payslip, error)
	MarkPaidByCycleID(ctx context.Context, cycleID string) error
}
