package domain

import (
	"fmt"
	"time"
)

// Role enumerates the principals recognized by the helpdesk.
type Role string

const (
	RoleEndUser Role = "END_USER"
	RoleAgent   Role = "AGENT"
	RoleL1      Role = "L1"
	RoleL2      Role = "L2"
	RoleL3      Role = "L3"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole validates a role value coming from the outside.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleEndUser, RoleAgent, RoleL1, RoleL2, RoleL3, RoleAdmin:
		return Role(value), nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

// IsAgentTier reports whether the role is a support operator short of admin.
func (r Role) IsAgentTier() bool {
	switch r {
	case RoleAgent, RoleL1, RoleL2, RoleL3:
		return true
	}
	return false
}

// User is the single account model for requesters, agents and admins.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
