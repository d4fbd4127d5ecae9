package checklist

import "context"

// ChecklistRepository lists the pre-run checks recorded for a period.
type ChecklistRepository interface {
	ListByPeriod(ctx context.Context, period string) ([]PreRunCheck, error)
}
