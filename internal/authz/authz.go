// Package authz is the single authorization policy. Every service builds a
// Request from the caller's profile and the target and calls Decide before any
// side effect.
package authz

import (
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

type Action string

const (
	ActionResetProgress     Action = "territory.reset_progress"
	ActionEditHistory       Action = "territory.edit_history"
	ActionAssignTerritory   Action = "territory.assign"
	ActionReturnTerritory   Action = "territory.return"
	ActionManageTerritories Action = "territory.manage"
	ActionMarkHouse         Action = "house.mark"
	ActionSendNotification  Action = "notification.send"
	ActionDeleteAccount     Action = "account.delete"
)

// Request describes one authorization question. TargetID is the user the
// action is aimed at, when there is one.
type Request struct {
	CallerID             id.UserID
	CallerRole           id.Role
	CallerStatus         id.UserStatus
	CallerCongregationID id.CongregationID
	Action               Action
	TargetID             id.UserID
	TargetCongregationID id.CongregationID
}

// Decision is the policy outcome. Code is set when the request is denied.
type Decision struct {
	Allowed bool
	Reason  string
	Code    dErrors.Code
}

// Err converts a denial into a domain error; it is nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return dErrors.New(d.Code, d.Reason)
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(code dErrors.Code, reason string) Decision {
	return Decision{Allowed: false, Reason: reason, Code: code}
}

var managers = map[id.Role]bool{
	id.RoleAdministrator:    true,
	id.RoleSupervisor:       true,
	id.RoleTerritoryServant: true,
}

// Decide evaluates the policy.
func Decide(req Request) Decision {
	if req.CallerID == "" {
		return deny(dErrors.CodeUnauthorized, "authentication required")
	}
	if req.Action == ActionDeleteAccount && req.TargetID == req.CallerID {
		return decideSelfDelete(req)
	}
	if req.CallerStatus != id.UserStatusActive {
		return deny(dErrors.CodeForbidden, "account is not active")
	}
	if req.TargetCongregationID != "" && req.TargetCongregationID != req.CallerCongregationID {
		return deny(dErrors.CodeForbidden, "target belongs to another congregation")
	}

	isAdmin := req.CallerRole == id.RoleAdministrator

	switch req.Action {
	case ActionResetProgress, ActionEditHistory:
		if !isAdmin {
			return deny(dErrors.CodeForbidden, "administrator role required")
		}
		return allow("administrator")

	case ActionManageTerritories, ActionSendNotification:
		if isAdmin || req.CallerRole == id.RoleSupervisor {
			return allow("administrator or supervisor")
		}
		return deny(dErrors.CodeForbidden, "administrator or supervisor role required")

	case ActionAssignTerritory:
		if managers[req.CallerRole] {
			return allow("territory manager")
		}
		return deny(dErrors.CodeForbidden, "insufficient role to assign territories")

	case ActionReturnTerritory:
		if managers[req.CallerRole] {
			return allow("territory manager")
		}
		if req.TargetID != "" && req.TargetID == req.CallerID {
			return allow("assignee returning own territory")
		}
		return deny(dErrors.CodeForbidden, "only the assignee or a manager may return a territory")

	case ActionMarkHouse:
		return allow("active member")

	case ActionDeleteAccount:
		if isAdmin {
			return allow("administrator deleting another account")
		}
		return deny(dErrors.CodeForbidden, "insufficient permission to delete this account")
	}

	return deny(dErrors.CodeForbidden, "unknown action")
}

// decideSelfDelete applies to members of any status except blocked, whose
// account stays until an administrator removes it.
func decideSelfDelete(req Request) Decision {
	switch {
	case req.CallerRole == id.RoleAdministrator:
		return deny(dErrors.CodeForbiddenSelfDelete, "administrators cannot delete their own account")
	case req.CallerStatus == id.UserStatusBlocked:
		return deny(dErrors.CodeForbidden, "blocked accounts cannot delete themselves")
	default:
		return allow("self delete")
	}
}
