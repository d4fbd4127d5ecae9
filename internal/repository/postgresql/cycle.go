package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type cycleRepository struct {
	db *database.DB
}

func NewCycleRepository(db *database.DB) cycle.CycleRepository {
	return &cycleRepository{db: db}
}

const cycleColumns = `id, period, status, total_employees, total_gross_pay, total_deductions,
	   total_net_pay, anomalies, version, created_at, updated_at`

func (r *cycleRepository) Create(ctx context.Context, c cycle.PayrollCycle) (cycle.PayrollCycle, error) {
	q := database.QuerierFrom(ctx, r.db)

	anomaliesJSON, _ := json.Marshal(c.Anomalies)

	query := `
		INSERT INTO payroll_cycles (
			id, period, status, total_employees, total_gross_pay, total_deductions,
			total_net_pay, anomalies, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		RETURNING ` + cycleColumns

	created, err := scanCycle(q.QueryRow(ctx, query,
		c.ID, c.Period, c.Status, c.Summary.TotalEmployees, c.Summary.TotalGrossPay,
		c.Summary.TotalDeductions, c.Summary.TotalNetPay, anomaliesJSON,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_cycle_period") {
			return cycle.PayrollCycle{}, cycle.ErrPeriodAlreadyActive
		}
		return cycle.PayrollCycle{}, fmt.Errorf("failed to create payroll cycle: %w", err)
	}

	return created, nil
}

func (r *cycleRepository) GetByID(ctx context.Context, id string) (cycle.PayrollCycle, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + cycleColumns + ` FROM payroll_cycles WHERE id = $1`

	c, err := scanCycle(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return cycle.PayrollCycle{}, cycle.ErrCycleNotFound
		}
		return cycle.PayrollCycle{}, fmt.Errorf("failed to get payroll cycle: %w", err)
	}

	return c, nil
}

func (r *cycleRepository) GetByPeriod(ctx context.Context, period string) (cycle.PayrollCycle, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + cycleColumns + ` FROM payroll_cycles WHERE period = $1`

	c, err := scanCycle(q.QueryRow(ctx, query, period))
	if err != nil {
		if err == pgx.ErrNoRows {
			return cycle.PayrollCycle{}, cycle.ErrCycleNotFound
		}
		return cycle.PayrollCycle{}, fmt.Errorf("failed to get payroll cycle by period: %w", err)
	}

	return c, nil
}

func (r *cycleRepository) List(ctx context.Context, filter cycle.CycleFilter) ([]cycle.PayrollCycle, int64, error) {
	q := database.QuerierFrom(ctx, r.db)

	baseQuery := ` FROM payroll_cycles WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Period != nil {
		baseQuery += fmt.Sprintf(" AND period = $%d", argIdx)
		args = append(args, *filter.Period)
		argIdx++
	}

	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll cycles: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(
		"SELECT "+cycleColumns+baseQuery+" ORDER BY period DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll cycles: %w", err)
	}
	defer rows.Close()

	var cycles []cycle.PayrollCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll cycle: %w", err)
		}
		cycles = append(cycles, c)
	}

	return cycles, totalCount, nil
}

// Update is a compare-and-swap guarded by version: the row is written
// only when the stored version still equals expectedVersion, and the
// version is bumped in the same statement. A missed match surfaces as
// ErrCycleConflict so racing transitions resolve to a single winner.
func (r *cycleRepository) Update(ctx context.Context, c cycle.PayrollCycle, expectedVersion int64) (cycle.PayrollCycle, error) {
	q := database.QuerierFrom(ctx, r.db)

	anomaliesJSON, _ := json.Marshal(c.Anomalies)

	query := `
		UPDATE payroll_cycles
		SET status = $3, total_employees = $4, total_gross_pay = $5, total_deductions = $6,
			total_net_pay = $7, anomalies = $8, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + cycleColumns

	updated, err := scanCycle(q.QueryRow(ctx, query,
		c.ID, expectedVersion, c.Status, c.Summary.TotalEmployees, c.Summary.TotalGrossPay,
		c.Summary.TotalDeductions, c.Summary.TotalNetPay, anomaliesJSON,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			// Either the cycle is gone or the version moved underneath us;
			// a conflict reports the state that won so callers can resync.
			fresh, getErr := r.GetByID(ctx, c.ID)
			if getErr != nil {
				return cycle.PayrollCycle{}, getErr
			}
			return cycle.PayrollCycle{}, &cycle.CycleStateError{Err: cycle.ErrCycleConflict, Current: fresh.Status}
		}
		return cycle.PayrollCycle{}, fmt.Errorf("failed to update payroll cycle: %w", err)
	}

	return updated, nil
}

func scanCycle(row pgx.Row) (cycle.PayrollCycle, error) {
	var c cycle.PayrollCycle
	var anomaliesBytes []byte
	err := row.Scan(
		&c.ID, &c.Period, &c.Status, &c.Summary.TotalEmployees, &c.Summary.TotalGrossPay,
		&c.Summary.TotalDeductions, &c.Summary.TotalNetPay, &anomaliesBytes, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return cycle.PayrollCycle{}, err
	}

	_ = json.Unmarshal(anomaliesBytes, &c.Anomalies)

	return c, nil
}
