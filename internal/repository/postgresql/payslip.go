package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payslipRepository struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payslip.PayslipRepository {
	return &payslipRepository{db: db}
}

const payslipColumns = `id, cycle_id, employee_id, employee_name, base_salary, earnings_detail,
	   deductions_detail, total_gross_salary, total_deductions, net_pay, bank_status,
	   exception, payment_status, voided, created_at, updated_at`

func (r *payslipRepository) CreateBatch(ctx context.Context, payslips []payslip.Payslip) error {
	if len(payslips) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)

	batch := &pgx.Batch{}
	query := `
		INSERT INTO payroll_payslips (
			id, cycle_id, employee_id, employee_name, base_salary, earnings_detail,
			deductions_detail, total_gross_salary, total_deductions, net_pay,
			bank_status, exception, payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for _, p := range payslips {
		earningsJSON, _ := json.Marshal(p.Earnings)
		deductionsJSON, _ := json.Marshal(p.Deductions)
		batch.Queue(query,
			p.ID, p.CycleID, p.EmployeeID, p.EmployeeName, p.BaseSalary, earningsJSON,
			deductionsJSON, p.TotalGrossSalary, p.TotalDeductions, p.NetPay,
			p.BankStatus, p.Exception, p.PaymentStatus,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range payslips {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert payslip batch: %w", err)
		}
	}

	return nil
}

func (r *payslipRepository) GetByCycleAndEmployee(ctx context.Context, cycleID, employeeID string) (payslip.Payslip, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + payslipColumns + `
		FROM payroll_payslips
		WHERE cycle_id = $1 AND employee_id = $2 AND voided = FALSE`

	p, err := scanPayslip(q.QueryRow(ctx, query, cycleID, employeeID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payslip.Payslip{}, payslip.ErrPayslipNotFound
		}
		return payslip.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return p, nil
}

func (r *payslipRepository) ListByCycleID(ctx context.Context, cycleID string) ([]payslip.Payslip, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + payslipColumns + `
		FROM payroll_payslips
		WHERE cycle_id = $1
		ORDER BY employee_name ASC`

	rows, err := q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var payslips []payslip.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}

	return payslips, nil
}

func (r *payslipRepository) Update(ctx context.Context, p payslip.Payslip) (payslip.Payslip, error) {
	q := database.QuerierFrom(ctx, r.db)

	earningsJSON, _ := json.Marshal(p.Earnings)
	deductionsJSON, _ := json.Marshal(p.Deductions)

	query := `
		UPDATE payroll_payslips
		SET earnings_detail = $2, deductions_detail = $3, total_gross_salary = $4,
			total_deductions = $5, net_pay = $6, bank_status = $7, exception = $8,
			payment_status = $9, voided = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + payslipColumns

	updated, err := scanPayslip(q.QueryRow(ctx, query,
		p.ID, earningsJSON, deductionsJSON, p.TotalGrossSalary, p.TotalDeductions,
		p.NetPay, p.BankStatus, p.Exception, p.PaymentStatus, p.Voided,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payslip.Payslip{}, payslip.ErrPayslipNotFound
		}
		return payslip.Payslip{}, fmt.Errorf("failed to update payslip: %w", err)
	}

	return updated, nil
}

func (r *payslipRepository) MarkPaidByCycleID(ctx context.Context, cycleID string) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE payroll_payslips
		SET payment_status = $2, updated_at = NOW()
		WHERE cycle_id = $1 AND voided = FALSE`

	if _, err := q.Exec(ctx, query, cycleID, payslip.PaymentStatusPaid); err != nil {
		return fmt.Errorf("failed to mark payslips paid: %w", err)
	}

	return nil
}

func scanPayslip(row pgx.Row) (payslip.Payslip, error) {
	var p payslip.Payslip
	var earningsBytes, deductionsBytes []byte
	err := row.Scan(
		&p.ID, &p.CycleID, &p.EmployeeID, &p.EmployeeName, &p.BaseSalary, &earningsBytes,
		&deductionsBytes, &p.TotalGrossSalary, &p.TotalDeductions, &p.NetPay, &p.BankStatus,
		&p.Exception, &p.PaymentStatus, &p.Voided, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return payslip.Payslip{}, err
	}

	_ = json.Unmarshal(earningsBytes, &p.Earnings)
	_ = json.Unmarshal(deductionsBytes, &p.Deductions)

	return p, nil
}
