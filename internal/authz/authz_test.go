package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

func TestDecide(t *testing.T) {
	cong := id.NewCongregationID()
	other := id.NewCongregationID()
	caller := id.NewUserID()
	target := id.NewUserID()

	base := func(role id.Role, action Action) Request {
		return Request{
			CallerID:             caller,
			CallerRole:           role,
			CallerStatus:         id.UserStatusActive,
			CallerCongregationID: cong,
			Action:               action,
			TargetCongregationID: cong,
		}
	}

	tests := []struct {
		name    string
		req     Request
		allowed bool
		code    dErrors.Code
	}{
		{"admin resets progress", base(id.RoleAdministrator, ActionResetProgress), true, ""},
		{"supervisor cannot reset progress", base(id.RoleSupervisor, ActionResetProgress), false, dErrors.CodeForbidden},
		{"publisher cannot edit history", base(id.RolePublisher, ActionEditHistory), false, dErrors.CodeForbidden},
		{"supervisor sends notifications", base(id.RoleSupervisor, ActionSendNotification), true, ""},
		{"servant cannot send notifications", base(id.RoleTerritoryServant, ActionSendNotification), false, dErrors.CodeForbidden},
		{"servant assigns territories", base(id.RoleTerritoryServant, ActionAssignTerritory), true, ""},
		{"publisher cannot assign territories", base(id.RolePublisher, ActionAssignTerritory), false, dErrors.CodeForbidden},
		{"publisher marks houses", base(id.RolePublisher, ActionMarkHouse), true, ""},
		{
			"publisher returns own territory",
			func() Request { r := base(id.RolePublisher, ActionReturnTerritory); r.TargetID = caller; return r }(),
			true, "",
		},
		{
			"publisher cannot return someone else's territory",
			func() Request { r := base(id.RolePublisher, ActionReturnTerritory); r.TargetID = target; return r }(),
			false, dErrors.CodeForbidden,
		},
		{
			"admin self delete is forbidden",
			func() Request { r := base(id.RoleAdministrator, ActionDeleteAccount); r.TargetID = caller; return r }(),
			false, dErrors.CodeForbiddenSelfDelete,
		},
		{
			"admin deletes another account",
			func() Request { r := base(id.RoleAdministrator, ActionDeleteAccount); r.TargetID = target; return r }(),
			true, "",
		},
		{
			"publisher deletes own account",
			func() Request { r := base(id.RolePublisher, ActionDeleteAccount); r.TargetID = caller; return r }(),
			true, "",
		},
		{
			"pending member deletes own account",
			func() Request {
				r := base(id.RolePublisher, ActionDeleteAccount)
				r.TargetID = caller
				r.CallerStatus = id.UserStatusPending
				return r
			}(),
			true, "",
		},
		{
			"rejected member deletes own account",
			func() Request {
				r := base(id.RolePublisher, ActionDeleteAccount)
				r.TargetID = caller
				r.CallerStatus = id.UserStatusRejected
				return r
			}(),
			true, "",
		},
		{
			"blocked member cannot delete own account",
			func() Request {
				r := base(id.RolePublisher, ActionDeleteAccount)
				r.TargetID = caller
				r.CallerStatus = id.UserStatusBlocked
				return r
			}(),
			false, dErrors.CodeForbidden,
		},
		{
			"pending admin self delete is still forbidden",
			func() Request {
				r := base(id.RoleAdministrator, ActionDeleteAccount)
				r.TargetID = caller
				r.CallerStatus = id.UserStatusPending
				return r
			}(),
			false, dErrors.CodeForbiddenSelfDelete,
		},
		{
			"pending member cannot delete another account",
			func() Request {
				r := base(id.RoleAdministrator, ActionDeleteAccount)
				r.TargetID = target
				r.CallerStatus = id.UserStatusPending
				return r
			}(),
			false, dErrors.CodeForbidden,
		},
		{
			"supervisor cannot delete another account",
			func() Request { r := base(id.RoleSupervisor, ActionDeleteAccount); r.TargetID = target; return r }(),
			false, dErrors.CodeForbidden,
		},
		{
			"cross congregation is forbidden",
			func() Request {
				r := base(id.RoleAdministrator, ActionResetProgress)
				r.TargetCongregationID = other
				return r
			}(),
			false, dErrors.CodeForbidden,
		},
		{
			"pending caller is forbidden",
			func() Request {
				r := base(id.RoleAdministrator, ActionResetProgress)
				r.CallerStatus = id.UserStatusPending
				return r
			}(),
			false, dErrors.CodeForbidden,
		},
		{
			"anonymous caller is unauthorized",
			func() Request { r := base(id.RoleAdministrator, ActionResetProgress); r.CallerID = ""; return r }(),
			false, dErrors.CodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.req)
			assert.Equal(t, tt.allowed, d.Allowed, d.Reason)
			if tt.allowed {
				assert.NoError(t, d.Err())
				return
			}
			assert.Equal(t, tt.code, d.Code)
			assert.True(t, dErrors.HasCode(d.Err(), tt.code))
		})
	}
}
