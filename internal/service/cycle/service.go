package cycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/checklist"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/anomaly"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/calculation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultCalcWorkers = 8

type CycleServiceImpl struct {
	tx          database.TxRunner
	cycleRepo   cycle.CycleRepository
	auditRepo   cycle.AuditLogRepository
	payslipRepo payslip.PayslipRepository
	directory   employee.EmployeeDirectory
	policies    policy.PolicyResolver
	checklist   checklist.ChecklistRepository
	engine      *calculation.Engine
	detector    *anomaly.Detector
	calcWorkers int
}

func NewCycleService(
	tx database.TxRunner,
	cycleRepo cycle.CycleRepository,
	auditRepo cycle.AuditLogRepository,
	payslipRepo payslip.PayslipRepository,
	directory employee.EmployeeDirectory,
	policies policy.PolicyResolver,
	checklistRepo checklist.ChecklistRepository,
	engine *calculation.Engine,
	detector *anomaly.Detector,
	calcWorkers int,
) cycle.CycleService {
	if calcWorkers <= 0 {
		calcWorkers = defaultCalcWorkers
	}
	return &CycleServiceImpl{
		tx:          tx,
		cycleRepo:   cycleRepo,
		auditRepo:   auditRepo,
		payslipRepo: payslipRepo,
		directory:   directory,
		policies:    policies,
		checklist:   checklistRepo,
		engine:      engine,
		detector:    detector,
		calcWorkers: calcWorkers,
	}
}

// ========== INITIATION ==========

func (s *CycleServiceImpl) Initiate(ctx context.Context, req cycle.InitiateCycleRequest) (cycle.CycleResponse, error) {
	if err := req.Validate(); err != nil {
		return cycle.CycleResponse{}, err
	}

	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return cycle.CycleResponse{}, err
	}
	if err := cycle.Authorize(actor.Role, cycle.ActionInitiate); err != nil {
		return cycle.CycleResponse{}, err
	}

	checks, err := s.checklist.ListByPeriod(ctx, req.Period)
	if err != nil {
		return cycle.CycleResponse{}, fmt.Errorf("failed to load pre-run checklist: %w", err)
	}
	for _, check := range checks {
		if !check.Resolved {
			return cycle.CycleResponse{}, fmt.Errorf("%w: %q", cycle.ErrChecklistUnresolved, check.Description)
		}
	}

	if _, err := s.cycleRepo.GetByPeriod(ctx, req.Period); err == nil {
		return cycle.CycleResponse{}, cycle.ErrPeriodAlreadyActive
	} else if !errors.Is(err, cycle.ErrCycleNotFound) {
		return cycle.CycleResponse{}, err
	}

	employees, err := s.directory.ListActive(ctx, req.Period)
	if err != nil {
		return cycle.CycleResponse{}, fmt.Errorf("failed to list active employees: %w", err)
	}
	snapshot, err := s.policies.GetActivePolicies(ctx, req.Period)
	if err != nil {
		return cycle.CycleResponse{}, fmt.Errorf("failed to resolve policy snapshot: %w", err)
	}

	// Calculation is pure per employee, so the batch fans out over a
	// bounded worker group and joins before anything is persisted.
	drafts := make([]payslip.Payslip, len(employees))
	var g errgroup.Group
	g.SetLimit(s.calcWorkers)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			drafts[i] = s.engine.Compute(emp, snapshot)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cycle.CycleResponse{}, fmt.Errorf("failed to calculate draft payslips: %w", err)
	}

	anomalies := s.detector.Scan(drafts)
	summary := summarize(drafts)

	var created cycle.PayrollCycle
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		created, err = s.cycleRepo.Create(txCtx, cycle.PayrollCycle{
			ID:        uuid.NewString(),
			Period:    req.Period,
			Status:    cycle.StatusUnderReview,
			Summary:   summary,
			Anomalies: anomalies,
		})
		if err != nil {
			return err
		}

		for i := range drafts {
			drafts[i].ID = uuid.NewString()
			drafts[i].CycleID = created.ID
		}
		if err := s.payslipRepo.CreateBatch(txCtx, drafts); err != nil {
			return fmt.Errorf("failed to create draft payslips: %w", err)
		}

		details := fmt.Sprintf("calculated %d draft payslips, %d anomalies detected", len(drafts), len(anomalies))
		return s.appendAudit(txCtx, created.ID, actor, cycle.ActionInitiate, &details)
	})
	if err != nil {
		return cycle.CycleResponse{}, err
	}

	return cycle.ToResponse(created), nil
}

// ========== READS ==========

func (s *CycleServiceImpl) Get(ctx context.Context, id string) (cycle.CycleResponse, error) {
	c, err := s.cycleRepo.GetByID(ctx, id)
	if err != nil {
		return cycle.CycleResponse{}, err
	}

	entries, err := s.auditRepo.ListByCycleID(ctx, id, false)
	if err != nil {
		return cycle.CycleResponse{}, err
	}

	resp := cycle.ToResponse(c)
	resp.AuditLog = cycle.ToAuditResponses(entries)
	return resp, nil
}

func (s *CycleServiceImpl) List(ctx context.Context, filter cycle.CycleFilter) (cycle.ListCycleResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	cycles, totalCount, err := s.cycleRepo.List(ctx, filter)
	if err != nil {
		return cycle.ListCycleResponse{}, err
	}

	data := make([]cycle.CycleResponse, 0, len(cycles))
	for _, c := range cycles {
		data = append(data, cycle.ToResponse(c))
	}

	return cycle.ListCycleResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *CycleServiceImpl) ListPayslips(ctx context.Context, cycleID string) ([]payslip.PayslipResponse, error) {
	if _, err := s.cycleRepo.GetByID(ctx, cycleID); err != nil {
		return nil, err
	}

	drafts, err := s.payslipRepo.ListByCycleID(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	return payslip.ToResponses(drafts), nil
}

func (s *CycleServiceImpl) AuditLog(ctx context.Context, cycleID string, newestFirst bool) ([]cycle.AuditEntryResponse, error) {
	if _, err := s.cycleRepo.GetByID(ctx, cycleID); err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.ListByCycleID(ctx, cycleID, newestFirst)
	if err != nil {
		return nil, err
	}

	return cycle.ToAuditResponses(entries), nil
}

// ========== TRANSITIONS ==========

func (s *CycleServiceImpl) Publish(ctx context.Context, id string) (cycle.CycleResponse, error) {
	return s.applyTransition(ctx, id, cycle.ActionPublish, nil,
		func(c cycle.PayrollCycle) error {
			if len(c.Anomalies) > 0 {
				return &cycle.CycleStateError{
					Err:     fmt.Errorf("%w: %d anomalies open", cycle.ErrAnomaliesUnresolved, len(c.Anomalies)),
					Current: c.Status,
				}
			}
			return nil
		}, nil)
}

func (s *CycleServiceImpl) ManagerReview(ctx context.Context, id string, req cycle.ReviewRequest) (cycle.CycleResponse, error) {
	if err := req.Validate(); err != nil {
		return cycle.CycleResponse{}, err
	}

	if req.Decision == cycle.ReviewDecisionApproved {
		return s.applyTransition(ctx, id, cycle.ActionManagerApprove, req.Reason, nil, nil)
	}

	if req.Reason == nil || validator.IsEmpty(*req.Reason) {
		return cycle.CycleResponse{}, fmt.Errorf("%w: rejection requires a reason", cycle.ErrReasonRequired)
	}
	return s.applyTransition(ctx, id, cycle.ActionManagerReject, req.Reason, nil, nil)
}

func (s *CycleServiceImpl) Unfreeze(ctx context.Context, id string, req cycle.UnfreezeRequest) (cycle.CycleResponse, error) {
	if validator.IsEmpty(req.Reason) {
		return cycle.CycleResponse{}, fmt.Errorf("%w: unfreeze requires a justification", cycle.ErrReasonRequired)
	}
	return s.applyTransition(ctx, id, cycle.ActionUnfreeze, &req.Reason, nil, nil)
}

func (s *CycleServiceImpl) Execute(ctx context.Context, id string) (cycle.CycleResponse, error) {
	return s.applyTransition(ctx, id, cycle.ActionExecute, nil, nil,
		func(txCtx context.Context, c cycle.PayrollCycle) error {
			return s.payslipRepo.MarkPaidByCycleID(txCtx, c.ID)
		})
}

// applyTransition runs the shared shape of every transition command:
// authorize the actor, consult the transition table, check the extra
// precondition, then commit status change + side effects + audit entry
// as one unit guarded by the cycle's version.
func (s *CycleServiceImpl) applyTransition(
	ctx context.Context,
	id string,
	action cycle.Action,
	details *string,
	pre func(c cycle.PayrollCycle) error,
	within func(txCtx context.Context, c cycle.PayrollCycle) error,
) (cycle.CycleResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return cycle.CycleResponse{}, err
	}
	if err := cycle.Authorize(actor.Role, action); err != nil {
		return cycle.CycleResponse{}, err
	}

	current, err := s.cycleRepo.GetByID(ctx, id)
	if err != nil {
		return cycle.CycleResponse{}, err
	}

	next, err := cycle.NextStatus(current.Status, action)
	if err != nil {
		return cycle.CycleResponse{}, err
	}
	if pre != nil {
		if err := pre(current); err != nil {
			return cycle.CycleResponse{}, err
		}
	}

	var updated cycle.PayrollCycle
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		expected := current.Version
		current.Status = next
		updated, err = s.cycleRepo.Update(txCtx, current, expected)
		if err != nil {
			return err
		}
		if within != nil {
			if err := within(txCtx, updated); err != nil {
				return err
			}
		}
		return s.appendAudit(txCtx, id, actor, action, details)
	})
	if err != nil {
		return cycle.CycleResponse{}, err
	}

	return cycle.ToResponse(updated), nil
}

// ========== CORRECTION ==========

func (s *CycleServiceImpl) CorrectPayslip(ctx context.Context, cycleID, employeeID string, req payslip.CorrectionRequest) (payslip.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payslip.PayslipResponse{}, err
	}

	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return payslip.PayslipResponse{}, err
	}
	if err := cycle.Authorize(actor.Role, cycle.ActionCorrectPayslip); err != nil {
		return payslip.PayslipResponse{}, err
	}

	owning, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return payslip.PayslipResponse{}, err
	}
	if !owning.Status.Editable() {
		return payslip.PayslipResponse{}, &cycle.CycleStateError{Err: cycle.ErrCycleNotEditable, Current: owning.Status}
	}

	draft, err := s.payslipRepo.GetByCycleAndEmployee(ctx, cycleID, employeeID)
	if err != nil {
		return payslip.PayslipResponse{}, err
	}

	// Net pay is re-derived as gross - taxes - deductions; the caller
	// never supplies it. Omitted fields keep the portion they govern:
	// taxes defaults to the draft's current tax line total, deductions
	// to the current non-tax remainder. An explicit deductions value
	// restates the whole withholding beyond what taxes names, so
	// correcting deductions alone sets the total outright.
	oldGross := draft.TotalGrossSalary
	oldTotal := draft.TotalDeductions
	oldTaxes := draft.Deductions.TaxTotal()

	gross := oldGross
	if req.GrossPay != nil {
		gross = req.GrossPay.Round(2)
	}
	taxes := oldTaxes
	if req.Taxes != nil {
		taxes = req.Taxes.Round(2)
	} else if req.Deductions != nil {
		taxes = decimal.Zero
	}
	deductions := oldTotal.Sub(oldTaxes)
	if req.Deductions != nil {
		deductions = req.Deductions.Round(2)
	}

	draft.TotalGrossSalary = gross
	draft.TotalDeductions = taxes.Add(deductions)
	draft.NetPay = draft.TotalGrossSalary.Sub(draft.TotalDeductions)

	// The structured breakdown must keep summing to the corrected
	// scalars, so each changed side records the delta as an adjustment
	// line item.
	if delta := gross.Sub(oldGross); !delta.IsZero() {
		draft.Earnings.Adjustments = append(draft.Earnings.Adjustments,
			payslip.PayComponent{Name: "Manual correction", Amount: delta})
	}
	if delta := draft.TotalDeductions.Sub(oldTotal); !delta.IsZero() {
		draft.Deductions.Adjustments = append(draft.Deductions.Adjustments,
			payslip.PayComponent{Name: "Manual correction", Amount: delta})
	}

	var updated payslip.Payslip
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		updated, err = s.payslipRepo.Update(txCtx, draft)
		if err != nil {
			return err
		}

		// A correction invalidates the cycle's anomaly list and summary;
		// both are rebuilt from the full draft set before anything else
		// can observe the cycle.
		drafts, err := s.payslipRepo.ListByCycleID(txCtx, cycleID)
		if err != nil {
			return err
		}
		owning.Anomalies = s.detector.Scan(drafts)
		owning.Summary = summarize(drafts)
		if _, err := s.cycleRepo.Update(txCtx, owning, owning.Version); err != nil {
			return err
		}

		details := fmt.Sprintf("corrected payslip for employee %s: gross %s, deductions %s, net %s",
			employeeID, updated.TotalGrossSalary.StringFixed(2), updated.TotalDeductions.StringFixed(2), updated.NetPay.StringFixed(2))
		return s.appendAudit(txCtx, cycleID, actor, cycle.ActionCorrectPayslip, &details)
	})
	if err != nil {
		return payslip.PayslipResponse{}, err
	}

	return payslip.ToResponse(updated), nil
}

// ========== HELPERS ==========

func (s *CycleServiceImpl) appendAudit(ctx context.Context, cycleID string, actor user.Actor, action cycle.Action, details *string) error {
	_, err := s.auditRepo.Append(ctx, cycle.AuditEntry{
		ID:        uuid.NewString(),
		CycleID:   cycleID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Details:   details,
	})
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func summarize(drafts []payslip.Payslip) cycle.Summary {
	summary := cycle.Summary{
		TotalGrossPay:   decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNetPay:     decimal.Zero,
	}
	for _, d := range drafts {
		if d.Voided {
			continue
		}
		summary.TotalEmployees++
		summary.TotalGrossPay = summary.TotalGrossPay.Add(d.TotalGrossSalary)
		summary.TotalDeductions = summary.TotalDeductions.Add(d.TotalDeductions)
		summary.TotalNetPay = summary.TotalNetPay.Add(d.NetPay)
	}
	return summary
}
