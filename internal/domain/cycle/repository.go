package cycle

import "context"

// CycleRepository defines data access for payroll cycles. Update is a
// compare-and-swap on Version: it must fail with ErrCycleConflict when
// the stored version differs, so concurrent transitions on one cycle
// resolve to a single winner.
type CycleRepository interface {
	Create(ctx context.Context, c PayrollCycle) (PayrollCycle, error)
	GetByID(ctx context.Context, id string) (PayrollCycle, error)
	GetByPeriod(ctx context.Context, period string) (PayrollCycle, error)
	List(ctx context.Context, filter CycleFilter) ([]PayrollCycle, int64, error)
	Update(ctx context.Context, c PayrollCycle, expectedVersion int64) (PayrollCycle, error)
}

// AuditLogRepository is the append-only ledger attached to a cycle.
// Entries are never edited or deleted; persisted order is canonical.
type AuditLogRepository interface {
	Append(ctx context.Context, entry AuditEntry) (AuditEntry, error)
	ListByCycleID(ctx context.Context, cycleID string, newestFirst bool) ([]AuditEntry, error)
}
