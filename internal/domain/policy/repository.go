package policy

import "context"

// PolicyResolver is the read-only contract over the policy store.
// Implementations must return only approved-status records.
type PolicyResolver interface {
	GetActivePolicies(ctx context.Context, period string) (Snapshot, error)
}
