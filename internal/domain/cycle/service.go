package cycle

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
)

// CycleService owns the payroll cycle lifecycle: batch calculation at
// initiation, the guarded transitions, the correction sub-workflow and
// the audit trail. Every state-changing method is atomic per cycle.
type CycleService interface {
	Initiate(ctx context.Context, req InitiateCycleRequest) (CycleResponse, error)
	Get(ctx context.Context, id string) (CycleResponse, error)
	List(ctx context.Context, filter CycleFilter) (ListCycleResponse, error)

	Publish(ctx context.Context, id string) (CycleResponse, error)
	ManagerReview(ctx context.Context, id string, req ReviewRequest) (CycleResponse, error)
	Unfreeze(ctx context.Context, id string, req UnfreezeRequest) (CycleResponse, error)
	Execute(ctx context.Context, id string) (CycleResponse, error)

	CorrectPayslip(ctx context.Context, cycleID, employeeID string, req payslip.CorrectionRequest) (payslip.PayslipResponse, error)
	ListPayslips(ctx context.Context, cycleID string) ([]payslip.PayslipResponse, error)
	AuditLog(ctx context.Context, cycleID string, newestFirst bool) ([]AuditEntryResponse, error)
}
