package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/checklist"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
)

type checklistRepository struct {
	db *database.DB
}

func NewChecklistRepository(db *database.DB) checklist.ChecklistRepository {
	return &checklistRepository{db: db}
}

func (r *checklistRepository) ListByPeriod(ctx context.Context, period string) ([]checklist.PreRunCheck, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, period, description, resolved
		FROM payroll_prerun_checks
		WHERE period = $1
		ORDER BY description ASC`

	rows, err := q.Query(ctx, query, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query pre-run checks: %w", err)
	}
	defer rows.Close()

	var checks []checklist.PreRunCheck
	for rows.Next() {
		var c checklist.PreRunCheck
		if err := rows.Scan(&c.ID, &c.Period, &c.Description, &c.Resolved); err != nil {
			return nil, fmt.Errorf("failed to scan pre-run check: %w", err)
		}
		checks = append(checks, c)
	}

	return checks, nil
}
