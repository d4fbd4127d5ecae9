package cycle

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/user"
)

// Action is a state-transition command issued by an authorized actor.
// The state machine is a pure function of (current status, action,
// actor role); side effects live in the service layer.
type Action string

const (
	ActionInitiate       Action = "initiate"
	ActionPublish        Action = "publish"
	ActionManagerApprove Action = "manager_approve"
	ActionManagerReject  Action = "manager_reject"
	ActionUnfreeze       Action = "unfreeze"
	ActionExecute        Action = "execute"

	// ActionCorrectPayslip is audited but does not change status.
	ActionCorrectPayslip Action = "correct_payslip"
)

type transition struct {
	from Status
	to   Status
}

var transitions = map[Action]transition{
	ActionPublish:        {from: StatusUnderReview, to: StatusReviewingByManager},
	ActionManagerApprove: {from: StatusReviewingByManager, to: StatusWaitingFinanceApproval},
	ActionManagerReject:  {from: StatusReviewingByManager, to: StatusRejected},
	ActionUnfreeze:       {from: StatusWaitingFinanceApproval, to: StatusUnderReview},
	ActionExecute:        {from: StatusWaitingFinanceApproval, to: StatusExecuted},
}

var actionRoles = map[Action][]user.Role{
	ActionInitiate:       {user.RolePayrollSpecialist, user.RolePayrollManager, user.RoleAdmin},
	ActionPublish:        {user.RolePayrollSpecialist, user.RolePayrollManager, user.RoleAdmin},
	ActionManagerApprove: {user.RolePayrollManager, user.RoleAdmin},
	ActionManagerReject:  {user.RolePayrollManager, user.RoleAdmin},
	ActionUnfreeze:       {user.RolePayrollManager, user.RoleAdmin},
	ActionExecute:        {user.RoleFinanceStaff, user.RoleAdmin},
	ActionCorrectPayslip: {user.RolePayrollSpecialist, user.RolePayrollManager, user.RoleAdmin},
}

// InvalidTransitionError names the cycle's current status and the
// attempted target so callers can resynchronize.
type InvalidTransitionError struct {
	Current   Status
	Attempted Status
	Action    Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: action %q moves %s to %s, but cycle is %s",
		e.Action, transitions[e.Action].from, e.Attempted, e.Current)
}

// NextStatus returns the status the action leads to from current, or an
// InvalidTransitionError if the transition table does not allow it.
func NextStatus(current Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("unknown transition action %q", action)
	}
	if t.from != current {
		return "", &InvalidTransitionError{Current: current, Attempted: t.to, Action: action}
	}
	return t.to, nil
}

// Authorize checks role eligibility for an action.
func Authorize(role user.Role, action Action) error {
	allowed, ok := actionRoles[action]
	if !ok {
		return fmt.Errorf("unknown transition action %q", action)
	}
	if !role.IsOneOf(allowed...) {
		return &ActionNotAllowedError{Role: role, Action: action}
	}
	return nil
}

// ActionNotAllowedError is returned when the actor's role is not
// eligible for the attempted action.
type ActionNotAllowedError struct {
	Role   user.Role
	Action Action
}

func (e *ActionNotAllowedError) Error() string {
	return fmt.Sprintf("role %q is not allowed to perform %q", e.Role, e.Action)
}
