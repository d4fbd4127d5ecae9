package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
)

// policyResolver reads the compensation policy tables maintained by the
// policy management side of the platform. Only approved policies whose
// effective range covers the requested period participate in a run.
type policyResolver struct {
	db *database.DB
}

func NewPolicyResolver(db *database.DB) policy.PolicyResolver {
	return &policyResolver{db: db}
}

func (r *policyResolver) GetActivePolicies(ctx context.Context, period string) (policy.Snapshot, error) {
	q := database.QuerierFrom(ctx, r.db)

	snap := policy.Snapshot{Period: period}

	taxQuery := `
		SELECT id, name, rate
		FROM tax_rules
		WHERE status = 'approved'
		  AND effective_from <= $1
		  AND (effective_until IS NULL OR effective_until >= $1)
		ORDER BY name ASC`

	rows, err := q.Query(ctx, taxQuery, period)
	if err != nil {
		return policy.Snapshot{}, fmt.Errorf("failed to query tax rules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t policy.TaxRule
		if err := rows.Scan(&t.ID, &t.Name, &t.Rate); err != nil {
			return policy.Snapshot{}, fmt.Errorf("failed to scan tax rule: %w", err)
		}
		snap.TaxRules = append(snap.TaxRules, t)
	}
	rows.Close()

	bracketQuery := `
		SELECT id, name, salary_min, salary_max, employee_rate
		FROM insurance_brackets
		WHERE status = 'approved'
		  AND effective_from <= $1
		  AND (effective_until IS NULL OR effective_until >= $1)
		ORDER BY salary_min ASC`

	rows, err = q.Query(ctx, bracketQuery, period)
	if err != nil {
		return policy.Snapshot{}, fmt.Errorf("failed to query insurance brackets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b policy.InsuranceBracket
		if err := rows.Scan(&b.ID, &b.Name, &b.SalaryMin, &b.SalaryMax, &b.EmployeeRate); err != nil {
			return policy.Snapshot{}, fmt.Errorf("failed to scan insurance bracket: %w", err)
		}
		snap.InsuranceBrackets = append(snap.InsuranceBrackets, b)
	}
	rows.Close()

	allowanceQuery := `
		SELECT id, name, amount, grade_id
		FROM allowance_policies
		WHERE status = 'approved'
		  AND effective_from <= $1
		  AND (effective_until IS NULL OR effective_until >= $1)
		ORDER BY name ASC`

	rows, err = q.Query(ctx, allowanceQuery, period)
	if err != nil {
		return policy.Snapshot{}, fmt.Errorf("failed to query allowance policies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a policy.AllowancePolicy
		if err := rows.Scan(&a.ID, &a.Name, &a.Amount, &a.GradeID); err != nil {
			return policy.Snapshot{}, fmt.Errorf("failed to scan allowance policy: %w", err)
		}
		snap.AllowancePolicies = append(snap.AllowancePolicies, a)
	}
	rows.Close()

	bonusQuery := `
		SELECT id, name, amount, grade_id
		FROM bonus_policies
		WHERE status = 'approved'
		  AND effective_from <= $1
		  AND (effective_until IS NULL OR effective_until >= $1)
		ORDER BY name ASC`

	rows, err = q.Query(ctx, bonusQuery, period)
	if err != nil {
		return policy.Snapshot{}, fmt.Errorf("failed to query bonus policies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b policy.BonusPolicy
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount, &b.GradeID); err != nil {
			return policy.Snapshot{}, fmt.Errorf("failed to scan bonus policy: %w", err)
		}
		snap.BonusPolicies = append(snap.BonusPolicies, b)
	}

	return snap, nil
}
