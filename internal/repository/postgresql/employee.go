package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
)

type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.EmployeeDirectory {
	return &employeeDirectory{db: db}
}

// ListActive returns a compensation snapshot per active employee for the
// period, with the recurring pay items (benefits, refunds, penalties)
// recorded against that period attached.
func (d *employeeDirectory) ListActive(ctx context.Context, period string) ([]employee.CompensationSnapshot, error) {
	q := database.QuerierFrom(ctx, d.db)

	query := `
		SELECT id, full_name, base_salary, bank_name, bank_account_number, grade_id, department_id
		FROM employees
		WHERE employment_status = 'active' AND deleted_at IS NULL
		ORDER BY full_name ASC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active employees: %w", err)
	}
	defer rows.Close()

	var snapshots []employee.CompensationSnapshot
	index := map[string]int{}
	for rows.Next() {
		var s employee.CompensationSnapshot
		err := rows.Scan(
			&s.ID, &s.FullName, &s.BaseSalary, &s.BankName, &s.BankAccountNumber,
			&s.GradeID, &s.DepartmentID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		index[s.ID] = len(snapshots)
		snapshots = append(snapshots, s)
	}
	rows.Close()

	if len(snapshots) == 0 {
		return snapshots, nil
	}

	itemQuery := `
		SELECT i.employee_id, i.kind, i.name, i.amount
		FROM employee_pay_items i
		JOIN employees e ON e.id = i.employee_id
		WHERE i.period = $1 AND e.employment_status = 'active' AND e.deleted_at IS NULL
		ORDER BY i.employee_id, i.name ASC`

	rows, err = q.Query(ctx, itemQuery, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee pay items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID, kind string
		var item payslip.PayComponent
		if err := rows.Scan(&employeeID, &kind, &item.Name, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan employee pay item: %w", err)
		}

		i, ok := index[employeeID]
		if !ok {
			continue
		}
		switch kind {
		case "benefit":
			snapshots[i].Benefits = append(snapshots[i].Benefits, item)
		case "refund":
			snapshots[i].Refunds = append(snapshots[i].Refunds, item)
		case "penalty":
			snapshots[i].Penalties = append(snapshots[i].Penalties, item)
		}
	}

	return snapshots, nil
}
