package employee

import "context"

// EmployeeDirectory is the contract over employee master data consumed
// at cycle initiation. The period scopes the one-off pay items (benefits,
// refunds, penalties) attached to each snapshot.
type EmployeeDirectory interface {
	ListActive(ctx context.Context, period string) ([]CompensationSnapshot, error)
}
