package cycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/checklist"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/anomaly"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/calculation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== FAKES ==========

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCycleRepo struct {
	cycles   map[string]cycle.PayrollCycle
	onUpdate func(r *fakeCycleRepo) // invoked before the CAS check
}

func newFakeCycleRepo() *fakeCycleRepo {
	return &fakeCycleRepo{cycles: map[string]cycle.PayrollCycle{}}
}

func (r *fakeCycleRepo) Create(ctx context.Context, c cycle.PayrollCycle) (cycle.PayrollCycle, error) {
	for _, existing := range r.cycles {
		if existing.Period == c.Period {
			return cycle.PayrollCycle{}, cycle.ErrPeriodAlreadyActive
		}
	}
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.cycles[c.ID] = c
	return c, nil
}

func (r *fakeCycleRepo) GetByID(ctx context.Context, id string) (cycle.PayrollCycle, error) {
	c, ok := r.cycles[id]
	if !ok {
		return cycle.PayrollCycle{}, cycle.ErrCycleNotFound
	}
	return c, nil
}

func (r *fakeCycleRepo) GetByPeriod(ctx context.Context, period string) (cycle.PayrollCycle, error) {
	for _, c := range r.cycles {
		if c.Period == period {
			return c, nil
		}
	}
	return cycle.PayrollCycle{}, cycle.ErrCycleNotFound
}

func (r *fakeCycleRepo) List(ctx context.Context, filter cycle.CycleFilter) ([]cycle.PayrollCycle, int64, error) {
	var result []cycle.PayrollCycle
	for _, c := range r.cycles {
		if filter.Status != nil && string(c.Status) != *filter.Status {
			continue
		}
		if filter.Period != nil && c.Period != *filter.Period {
			continue
		}
		result = append(result, c)
	}
	return result, int64(len(result)), nil
}

func (r *fakeCycleRepo) Update(ctx context.Context, c cycle.PayrollCycle, expectedVersion int64) (cycle.PayrollCycle, error) {
	if r.onUpdate != nil {
		r.onUpdate(r)
		r.onUpdate = nil
	}
	stored, ok := r.cycles[c.ID]
	if !ok {
		return cycle.PayrollCycle{}, cycle.ErrCycleNotFound
	}
	if stored.Version != expectedVersion {
		return cycle.PayrollCycle{}, &cycle.CycleStateError{Err: cycle.ErrCycleConflict, Current: stored.Status}
	}
	c.Version = stored.Version + 1
	c.UpdatedAt = time.Now()
	r.cycles[c.ID] = c
	return c, nil
}

type fakeAuditRepo struct {
	entries []cycle.AuditEntry
	seq     int64
}

func (r *fakeAuditRepo) Append(ctx context.Context, entry cycle.AuditEntry) (cycle.AuditEntry, error) {
	r.seq++
	entry.Seq = r.seq
	entry.Timestamp = time.Now()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *fakeAuditRepo) ListByCycleID(ctx context.Context, cycleID string, newestFirst bool) ([]cycle.AuditEntry, error) {
	var result []cycle.AuditEntry
	for _, e := range r.entries {
		if e.CycleID == cycleID {
			result = append(result, e)
		}
	}
	if newestFirst {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) byCycle(cycleID string) []cycle.AuditEntry {
	entries, _ := r.ListByCycleID(context.Background(), cycleID, false)
	return entries
}

type fakePayslipRepo struct {
	payslips map[string]payslip.Payslip // keyed by payslip ID
}

func newFakePayslipRepo() *fakePayslipRepo {
	return &fakePayslipRepo{payslips: map[string]payslip.Payslip{}}
}

func (r *fakePayslipRepo) CreateBatch(ctx context.Context, payslips []payslip.Payslip) error {
	for _, p := range payslips {
		r.payslips[p.ID] = p
	}
	return nil
}

func (r *fakePayslipRepo) GetByCycleAndEmployee(ctx context.Context, cycleID, employeeID string) (payslip.Payslip, error) {
	for _, p := range r.payslips {
		if p.CycleID == cycleID && p.EmployeeID == employeeID && !p.Voided {
			return p, nil
		}
	}
	return payslip.Payslip{}, payslip.ErrPayslipNotFound
}

func (r *fakePayslipRepo) ListByCycleID(ctx context.Context, cycleID string) ([]payslip.Payslip, error) {
	var result []payslip.Payslip
	for _, p := range r.payslips {
		if p.CycleID == cycleID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePayslipRepo) Update(ctx context.Context, p payslip.Payslip) (payslip.Payslip, error) {
	if _, ok := r.payslips[p.ID]; !ok {
		return payslip.Payslip{}, payslip.ErrPayslipNotFound
	}
	r.payslips[p.ID] = p
	return p, nil
}

func (r *fakePayslipRepo) MarkPaidByCycleID(ctx context.Context, cycleID string) error {
	for id, p := range r.payslips {
		if p.CycleID == cycleID && !p.Voided {
			p.PaymentStatus = payslip.PaymentStatusPaid
			r.payslips[id] = p
		}
	}
	return nil
}

type fakeDirectory struct {
	employees []employee.CompensationSnapshot
}

func (d *fakeDirectory) ListActive(ctx context.Context, period string) ([]employee.CompensationSnapshot, error) {
	return d.employees, nil
}

type fakePolicies struct {
	snap policy.Snapshot
}

func (p *fakePolicies) GetActivePolicies(ctx context.Context, period string) (policy.Snapshot, error) {
	p.snap.Period = period
	return p.snap, nil
}

type fakeChecklist struct {
	checks []checklist.PreRunCheck
}

func (c *fakeChecklist) ListByPeriod(ctx context.Context, period string) ([]checklist.PreRunCheck, error) {
	return c.checks, nil
}

// ========== FIXTURE ==========

type fixture struct {
	service   cycle.CycleService
	cycleRepo *fakeCycleRepo
	auditRepo *fakeAuditRepo
	payslips  *fakePayslipRepo
	directory *fakeDirectory
	policies  *fakePolicies
	checklist *fakeChecklist
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newFixture() *fixture {
	f := &fixture{
		cycleRepo: newFakeCycleRepo(),
		auditRepo: &fakeAuditRepo{},
		payslips:  newFakePayslipRepo(),
		directory: &fakeDirectory{},
		policies:  &fakePolicies{},
		checklist: &fakeChecklist{},
	}
	f.service = NewCycleService(
		fakeTx{},
		f.cycleRepo,
		f.auditRepo,
		f.payslips,
		f.directory,
		f.policies,
		f.checklist,
		calculation.NewEngine(),
		anomaly.NewDetector(),
		2,
	)
	return f
}

func (f *fixture) withEmployees(employees ...employee.CompensationSnapshot) *fixture {
	f.directory.employees = employees
	return f
}

func specialistCtx() context.Context {
	return user.WithActor(context.Background(), user.Actor{ID: "u-spec", Name: "Sarah", Role: user.RolePayrollSpecialist})
}

func managerCtx() context.Context {
	return user.WithActor(context.Background(), user.Actor{ID: "u-mgr", Name: "Mark", Role: user.RolePayrollManager})
}

func financeCtx() context.Context {
	return user.WithActor(context.Background(), user.Actor{ID: "u-fin", Name: "Fiona", Role: user.RoleFinanceStaff})
}

func employeeWithBank(id, name, salary string) employee.CompensationSnapshot {
	return employee.CompensationSnapshot{
		ID:                id,
		FullName:          name,
		BaseSalary:        dec(salary),
		BankName:          "BCA",
		BankAccountNumber: "88-" + id,
	}
}

func (f *fixture) initiate(t *testing.T, period string) cycle.CycleResponse {
	t.Helper()
	resp, err := f.service.Initiate(specialistCtx(), cycle.InitiateCycleRequest{Period: period})
	require.NoError(t, err)
	return resp
}

// ========== INITIATION ==========

func TestInitiate_CalculatesDraftsAndFlagsAnomalies(t *testing.T) {
	t.Parallel()

	noBank := employee.CompensationSnapshot{ID: "emp-2", FullName: "Budi", BaseSalary: dec("4000")}
	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"), noBank)

	resp := f.initiate(t, "2025-11")

	assert.Equal(t, string(cycle.StatusUnderReview), resp.Status)
	assert.Equal(t, "2025-11", resp.Period)
	assert.Equal(t, 2, resp.Summary.TotalEmployees)
	assert.True(t, resp.Summary.TotalGrossPay.Equal(dec("10500")))

	require.Len(t, resp.Anomalies, 1)
	assert.Equal(t, "emp-2", resp.Anomalies[0].EmployeeID)
	assert.Equal(t, "Missing bank account", resp.Anomalies[0].Issue)
	assert.Equal(t, string(cycle.SeverityHigh), resp.Anomalies[0].Severity)

	drafts, err := f.payslips.ListByCycleID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	entries := f.auditRepo.byCycle(resp.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, cycle.ActionInitiate, entries[0].Action)
	assert.Equal(t, "u-spec", entries[0].ActorID)
	require.NotNil(t, entries[0].Details)
	assert.Contains(t, *entries[0].Details, "2 draft payslips")
}

func TestInitiate_RefusesUnresolvedChecklist(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	f.checklist.checks = []checklist.PreRunCheck{
		{ID: "c1", Period: "2025-11", Description: "Import attendance data", Resolved: true},
		{ID: "c2", Period: "2025-11", Description: "Confirm new hires", Resolved: false},
	}

	_, err := f.service.Initiate(specialistCtx(), cycle.InitiateCycleRequest{Period: "2025-11"})

	require.ErrorIs(t, err, cycle.ErrChecklistUnresolved)
	assert.Contains(t, err.Error(), "Confirm new hires")
	assert.Empty(t, f.cycleRepo.cycles)
}

func TestInitiate_RefusesDuplicatePeriod(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	f.initiate(t, "2025-11")

	_, err := f.service.Initiate(specialistCtx(), cycle.InitiateCycleRequest{Period: "2025-11"})

	require.ErrorIs(t, err, cycle.ErrPeriodAlreadyActive)
}

func TestInitiate_RejectsBadPeriod(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.service.Initiate(specialistCtx(), cycle.InitiateCycleRequest{Period: "November 2025"})

	require.Error(t, err)
}

func TestInitiate_RequiresActor(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.service.Initiate(context.Background(), cycle.InitiateCycleRequest{Period: "2025-11"})

	require.ErrorIs(t, err, user.ErrNoActor)
}

func TestInitiate_FinanceStaffNotAllowed(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.service.Initiate(financeCtx(), cycle.InitiateCycleRequest{Period: "2025-11"})

	var roleErr *cycle.ActionNotAllowedError
	require.ErrorAs(t, err, &roleErr)
}

// ========== PUBLISH GATE ==========

func TestPublish_BlockedWhileAnomaliesOpen(t *testing.T) {
	t.Parallel()

	noBank := employee.CompensationSnapshot{ID: "emp-2", FullName: "Budi", BaseSalary: dec("4000")}
	f := newFixture().withEmployees(noBank)
	resp := f.initiate(t, "2025-11")

	_, err := f.service.Publish(specialistCtx(), resp.ID)

	require.ErrorIs(t, err, cycle.ErrAnomaliesUnresolved)

	// The rejection names the cycle's authoritative state.
	var stateErr *cycle.CycleStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, cycle.StatusUnderReview, stateErr.Current)

	stored, _ := f.cycleRepo.GetByID(context.Background(), resp.ID)
	assert.Equal(t, cycle.StatusUnderReview, stored.Status)
}

func TestPublish_CleanCycleMovesToManagerReview(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")

	published, err := f.service.Publish(specialistCtx(), resp.ID)

	require.NoError(t, err)
	assert.Equal(t, string(cycle.StatusReviewingByManager), published.Status)

	entries := f.auditRepo.byCycle(resp.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, cycle.ActionPublish, entries[1].Action)
}

// ========== MANAGER REVIEW ==========

func TestManagerReview_Approve(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	_, err := f.service.Publish(specialistCtx(), resp.ID)
	require.NoError(t, err)

	approved, err := f.service.ManagerReview(managerCtx(), resp.ID, cycle.ReviewRequest{Decision: cycle.ReviewDecisionApproved})

	require.NoError(t, err)
	assert.Equal(t, string(cycle.StatusWaitingFinanceApproval), approved.Status)
}

func TestManagerReview_RejectRequiresReason(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	_, err := f.service.Publish(specialistCtx(), resp.ID)
	require.NoError(t, err)

	empty := "   "
	_, err = f.service.ManagerReview(managerCtx(), resp.ID, cycle.ReviewRequest{Decision: cycle.ReviewDecisionRejected, Reason: &empty})
	require.ErrorIs(t, err, cycle.ErrReasonRequired)

	stored, _ := f.cycleRepo.GetByID(context.Background(), resp.ID)
	assert.Equal(t, cycle.StatusReviewingByManager, stored.Status)

	reason := "Headcount mismatch against finance forecast"
	rejected, err := f.service.ManagerReview(managerCtx(), resp.ID, cycle.ReviewRequest{Decision: cycle.ReviewDecisionRejected, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, string(cycle.StatusRejected), rejected.Status)

	entries := f.auditRepo.byCycle(resp.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, cycle.ActionManagerReject, last.Action)
	require.NotNil(t, last.Details)
	assert.Equal(t, reason, *last.Details)
}

func TestManagerReview_SpecialistCannotDecide(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	_, err := f.service.Publish(specialistCtx(), resp.ID)
	require.NoError(t, err)

	_, err = f.service.ManagerReview(specialistCtx(), resp.ID, cycle.ReviewRequest{Decision: cycle.ReviewDecisionApproved})

	var roleErr *cycle.ActionNotAllowedError
	require.ErrorAs(t, err, &roleErr)
}

func TestManagerReview_InvalidDecision(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")

	_, err := f.service.ManagerReview(managerCtx(), resp.ID, cycle.ReviewRequest{Decision: "maybe"})

	require.Error(t, err)
}

// ========== UNFREEZE ==========

func toWaitingFinance(t *testing.T, f *fixture, id string) {
	t.Helper()
	_, err := f.service.Publish(specialistCtx(), id)
	require.NoError(t, err)
	_, err = f.service.ManagerReview(managerCtx(), id, cycle.ReviewRequest{Decision: cycle.ReviewDecisionApproved})
	require.NoError(t, err)
}

func TestUnfreeze_ReturnsCycleToReview(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	toWaitingFinance(t, f, resp.ID)

	unfrozen, err := f.service.Unfreeze(managerCtx(), resp.ID, cycle.UnfreezeRequest{Reason: "late overtime data"})

	require.NoError(t, err)
	assert.Equal(t, string(cycle.StatusUnderReview), unfrozen.Status)

	entries := f.auditRepo.byCycle(resp.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, cycle.ActionUnfreeze, last.Action)
	require.NotNil(t, last.Details)
	assert.Equal(t, "late overtime data", *last.Details)

	// Drafts are editable again after the unfreeze.
	gross := dec("7000")
	_, err = f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{GrossPay: &gross})
	require.NoError(t, err)
}

func TestUnfreeze_RequiresReason(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	toWaitingFinance(t, f, resp.ID)

	_, err := f.service.Unfreeze(managerCtx(), resp.ID, cycle.UnfreezeRequest{})

	require.ErrorIs(t, err, cycle.ErrReasonRequired)
}

// ========== EXECUTION ==========

func TestExecute_MarksPayslipsPaid(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	toWaitingFinance(t, f, resp.ID)

	executed, err := f.service.Execute(financeCtx(), resp.ID)

	require.NoError(t, err)
	assert.Equal(t, string(cycle.StatusExecuted), executed.Status)

	drafts, _ := f.payslips.ListByCycleID(context.Background(), resp.ID)
	for _, d := range drafts {
		assert.Equal(t, payslip.PaymentStatusPaid, d.PaymentStatus)
	}

	entries := f.auditRepo.byCycle(resp.ID)
	assert.Equal(t, cycle.ActionExecute, entries[len(entries)-1].Action)
}

func TestExecute_FromUnderReviewIsInvalid(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")

	_, err := f.service.Execute(financeCtx(), resp.ID)

	var transitionErr *cycle.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, cycle.StatusUnderReview, transitionErr.Current)
}

func TestExecute_ConcurrentTransitionLosesOnVersion(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	toWaitingFinance(t, f, resp.ID)

	// Another writer bumps the version after Execute reads the cycle.
	f.cycleRepo.onUpdate = func(r *fakeCycleRepo) {
		c := r.cycles[resp.ID]
		c.Version++
		r.cycles[resp.ID] = c
	}

	_, err := f.service.Execute(financeCtx(), resp.ID)

	require.ErrorIs(t, err, cycle.ErrCycleConflict)

	var stateErr *cycle.CycleStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, cycle.StatusWaitingFinanceApproval, stateErr.Current)
}

// ========== CORRECTION ==========

func TestCorrectPayslip_RecomputesNetAndSummary(t *testing.T) {
	t.Parallel()

	snap := employeeWithBank("emp-1", "Sarah", "6500")
	snap.Penalties = []payslip.PayComponent{{Name: "Late penalty", Amount: dec("200")}}
	f := newFixture().withEmployees(snap)
	f.policies.snap = policy.Snapshot{
		TaxRules:          []policy.TaxRule{{Name: "Income tax", Rate: dec("0.08")}},
		AllowancePolicies: []policy.AllowancePolicy{{Name: "Transport allowance", Amount: dec("300")}},
	}

	resp := f.initiate(t, "2025-11")

	draft, err := f.payslips.GetByCycleAndEmployee(context.Background(), resp.ID, "emp-1")
	require.NoError(t, err)
	require.True(t, draft.TotalGrossSalary.Equal(dec("6800")))
	require.True(t, draft.TotalDeductions.Equal(dec("744")))

	// Overriding deductions to a flat 300 with taxes omitted yields
	// net 6800 - 300 = 6500.
	deductions := dec("300")
	corrected, err := f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{Deductions: &deductions})
	require.NoError(t, err)

	assert.True(t, corrected.TotalDeductions.Equal(dec("300")), "deductions = %s", corrected.TotalDeductions)
	assert.True(t, corrected.NetPay.Equal(dec("6500")), "net = %s", corrected.NetPay)

	// The breakdown records the delta so it still sums to the scalar.
	assert.True(t, deductionsBreakdownTotal(corrected.Deductions).Equal(dec("300")))

	stored, _ := f.cycleRepo.GetByID(context.Background(), resp.ID)
	assert.True(t, stored.Summary.TotalDeductions.Equal(dec("300")))
	assert.True(t, stored.Summary.TotalNetPay.Equal(dec("6500")))

	entries := f.auditRepo.byCycle(resp.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, cycle.ActionCorrectPayslip, last.Action)
	require.NotNil(t, last.Details)
	assert.Contains(t, *last.Details, "emp-1")
}

func deductionsBreakdownTotal(d payslip.DeductionsDetail) decimal.Decimal {
	total := decimal.Zero
	for _, items := range [][]payslip.PayComponent{d.Taxes, d.Insurances, d.Penalties, d.Adjustments} {
		for _, item := range items {
			total = total.Add(item.Amount)
		}
	}
	return total
}

func TestCorrectPayslip_TaxesOnlyReplacesTaxPortion(t *testing.T) {
	t.Parallel()

	snap := employeeWithBank("emp-1", "Sarah", "6500")
	snap.Penalties = []payslip.PayComponent{{Name: "Late penalty", Amount: dec("200")}}
	f := newFixture().withEmployees(snap)
	f.policies.snap = policy.Snapshot{
		TaxRules:          []policy.TaxRule{{Name: "Income tax", Rate: dec("0.08")}},
		AllowancePolicies: []policy.AllowancePolicy{{Name: "Transport allowance", Amount: dec("300")}},
	}

	resp := f.initiate(t, "2025-11")

	// Baseline: gross 6800, deductions 744 = 544 tax + 200 penalty.
	// Restating only taxes must swap out the 544, not stack on it:
	// 500 + 200 = 700, never 500 + 744.
	taxes := dec("500")
	corrected, err := f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{Taxes: &taxes})
	require.NoError(t, err)

	assert.True(t, corrected.TotalDeductions.Equal(dec("700")), "deductions = %s", corrected.TotalDeductions)
	assert.True(t, corrected.NetPay.Equal(dec("6100")), "net = %s", corrected.NetPay)
	assert.True(t, deductionsBreakdownTotal(corrected.Deductions).Equal(dec("700")))

	stored, _ := f.cycleRepo.GetByID(context.Background(), resp.ID)
	assert.True(t, stored.Summary.TotalDeductions.Equal(dec("700")))
	assert.True(t, stored.Summary.TotalNetPay.Equal(dec("6100")))
}

func TestCorrectPayslip_GrossOnlyKeepsWithholding(t *testing.T) {
	t.Parallel()

	snap := employeeWithBank("emp-1", "Sarah", "6500")
	snap.Penalties = []payslip.PayComponent{{Name: "Late penalty", Amount: dec("200")}}
	f := newFixture().withEmployees(snap)
	f.policies.snap = policy.Snapshot{
		TaxRules: []policy.TaxRule{{Name: "Income tax", Rate: dec("0.08")}},
	}

	resp := f.initiate(t, "2025-11")

	gross := dec("7000")
	corrected, err := f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{GrossPay: &gross})
	require.NoError(t, err)

	// 6500 * 0.08 tax (520) + 200 penalty stays put; only gross moves.
	assert.True(t, corrected.TotalGrossSalary.Equal(dec("7000")))
	assert.True(t, corrected.TotalDeductions.Equal(dec("720")), "deductions = %s", corrected.TotalDeductions)
	assert.True(t, corrected.NetPay.Equal(dec("6280")), "net = %s", corrected.NetPay)

	// The earnings breakdown carries the delta as an adjustment.
	require.Len(t, corrected.Earnings.Adjustments, 1)
	assert.True(t, corrected.Earnings.Adjustments[0].Amount.Equal(dec("500")))
}

func TestCorrectPayslip_ResolvingAnomalyUnblocksPublish(t *testing.T) {
	t.Parallel()

	snap := employeeWithBank("emp-1", "Alya", "100")
	snap.Penalties = []payslip.PayComponent{{Name: "Equipment recovery", Amount: dec("350")}}
	f := newFixture().withEmployees(snap)

	resp := f.initiate(t, "2025-11")
	require.NotEmpty(t, resp.Anomalies)

	_, err := f.service.Publish(specialistCtx(), resp.ID)
	require.ErrorIs(t, err, cycle.ErrAnomaliesUnresolved)

	deductions := dec("50")
	_, err = f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{Deductions: &deductions})
	require.NoError(t, err)

	stored, _ := f.cycleRepo.GetByID(context.Background(), resp.ID)
	assert.Empty(t, stored.Anomalies)

	published, err := f.service.Publish(specialistCtx(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, string(cycle.StatusReviewingByManager), published.Status)
}

func TestCorrectPayslip_FrozenCycleRefused(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	toWaitingFinance(t, f, resp.ID)
	_, err := f.service.Execute(financeCtx(), resp.ID)
	require.NoError(t, err)

	auditBefore := len(f.auditRepo.byCycle(resp.ID))

	gross := dec("9000")
	_, err = f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{GrossPay: &gross})

	require.ErrorIs(t, err, cycle.ErrCycleNotEditable)
	var stateErr *cycle.CycleStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, cycle.StatusExecuted, stateErr.Current)

	// A refused correction leaves no trace: no draft change, no audit entry.
	draft, _ := f.payslips.GetByCycleAndEmployee(context.Background(), resp.ID, "emp-1")
	assert.True(t, draft.TotalGrossSalary.Equal(dec("6500")))
	assert.Len(t, f.auditRepo.byCycle(resp.ID), auditBefore)
}

func TestCorrectPayslip_RequiresAtLeastOneField(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")

	_, err := f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-1", payslip.CorrectionRequest{})

	require.Error(t, err)
}

func TestCorrectPayslip_UnknownEmployee(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")

	gross := dec("1")
	_, err := f.service.CorrectPayslip(specialistCtx(), resp.ID, "emp-404", payslip.CorrectionRequest{GrossPay: &gross})

	require.ErrorIs(t, err, payslip.ErrPayslipNotFound)
}

// ========== READS & AUDIT ==========

func TestGet_IncludesAuditLogOldestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	_, err := f.service.Publish(specialistCtx(), resp.ID)
	require.NoError(t, err)

	got, err := f.service.Get(context.Background(), resp.ID)

	require.NoError(t, err)
	require.Len(t, got.AuditLog, 2)
	assert.Equal(t, string(cycle.ActionInitiate), got.AuditLog[0].Action)
	assert.Equal(t, string(cycle.ActionPublish), got.AuditLog[1].Action)
	assert.Equal(t, "Sarah", got.AuditLog[0].ActorName)
}

func TestAuditLog_NewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	_, err := f.service.Publish(specialistCtx(), resp.ID)
	require.NoError(t, err)

	entries, err := f.service.AuditLog(context.Background(), resp.ID, true)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, string(cycle.ActionPublish), entries[0].Action)
}

func TestAuditLog_UnknownCycle(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.service.AuditLog(context.Background(), "nope", false)

	require.ErrorIs(t, err, cycle.ErrCycleNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	first := f.initiate(t, "2025-10")
	toWaitingFinance(t, f, first.ID)
	_, err := f.service.Execute(financeCtx(), first.ID)
	require.NoError(t, err)
	f.initiate(t, "2025-11")

	status := string(cycle.StatusExecuted)
	result, err := f.service.List(context.Background(), cycle.CycleFilter{Status: &status})

	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "2025-10", result.Data[0].Period)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
}

func TestFullLifecycle_AuditTrailIsComplete(t *testing.T) {
	t.Parallel()

	f := newFixture().withEmployees(employeeWithBank("emp-1", "Alya", "6500"))
	resp := f.initiate(t, "2025-11")
	toWaitingFinance(t, f, resp.ID)
	_, err := f.service.Unfreeze(managerCtx(), resp.ID, cycle.UnfreezeRequest{Reason: "late overtime data"})
	require.NoError(t, err)
	toWaitingFinance(t, f, resp.ID)
	_, err = f.service.Execute(financeCtx(), resp.ID)
	require.NoError(t, err)

	entries := f.auditRepo.byCycle(resp.ID)
	var actions []string
	for _, e := range entries {
		actions = append(actions, string(e.Action))
	}

	assert.Equal(t, "initiate,publish,manager_approve,unfreeze,publish,manager_approve,execute",
		strings.Join(actions, ","))
}
