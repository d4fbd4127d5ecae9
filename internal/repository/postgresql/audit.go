package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/cycle"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
)

// auditLogRepository is append-only: there is no update or delete path,
// and seq is assigned by the database so ordering survives clock skew.
type auditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) cycle.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry cycle.AuditEntry) (cycle.AuditEntry, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO payroll_cycle_audit (
			id, cycle_id, actor_id, actor_name, actor_role, action, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq, created_at`

	err := q.QueryRow(ctx, query,
		entry.ID, entry.CycleID, entry.ActorID, entry.ActorName, entry.ActorRole,
		entry.Action, entry.Details,
	).Scan(&entry.Seq, &entry.Timestamp)
	if err != nil {
		return cycle.AuditEntry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}

	return entry, nil
}

func (r *auditLogRepository) ListByCycleID(ctx context.Context, cycleID string, newestFirst bool) ([]cycle.AuditEntry, error) {
	q := database.QuerierFrom(ctx, r.db)

	order := "ASC"
	if newestFirst {
		order = "DESC"
	}

	query := `
		SELECT id, cycle_id, seq, created_at, actor_id, actor_name, actor_role, action, details
		FROM payroll_cycle_audit
		WHERE cycle_id = $1
		ORDER BY seq ` + order

	rows, err := q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []cycle.AuditEntry
	for rows.Next() {
		var e cycle.AuditEntry
		err := rows.Scan(
			&e.ID, &e.CycleID, &e.Seq, &e.Timestamp, &e.ActorID, &e.ActorName,
			&e.ActorRole, &e.Action, &e.Details,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
