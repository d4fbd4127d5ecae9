package user

// Role of the acting user, resolved from JWT claims by the auth layer.
type Role string

const (
	RolePayrollSpecialist Role = "payroll_specialist"
	RolePayrollManager    Role = "payroll_manager"
	RoleFinanceStaff      Role = "finance_staff"
	RoleAdmin             Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePayrollSpecialist, RolePayrollManager, RoleFinanceStaff, RoleAdmin:
		return true
	}
	return false
}

// IsOneOf reports whether r matches any of the given roles.
func (r Role) IsOneOf(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
