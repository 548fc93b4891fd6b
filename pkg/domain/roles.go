package domain

import dErrors "territorial/pkg/domain-errors"

// Role is a member's role within a congregation.
type Role string

const (
	RoleAdministrator    Role = "administrator"
	RoleSupervisor       Role = "supervisor"
	RoleTerritoryServant Role = "territory_servant"
	RolePublisher        Role = "publisher"
)

// UserStatus is the membership status of a profile.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusPending  UserStatus = "pending"
	UserStatusRejected UserStatus = "rejected"
	UserStatusBlocked  UserStatus = "blocked"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleSupervisor, RoleTerritoryServant, RolePublisher:
		return true
	}
	return false
}

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusPending, UserStatusRejected, UserStatusBlocked:
		return true
	}
	return false
}

// ParseRole validates a role string from input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}
