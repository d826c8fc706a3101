package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/domain"
)

func TestCapabilitiesByRole(t *testing.T) {
	cases := []struct {
		role        domain.Role
		workflow    bool
		assign      bool
		internal    bool
		catalog     bool
		manageUsers bool
	}{
		{domain.RoleEndUser, false, false, false, false, false},
		{domain.RoleAgent, true, false, true, false, false},
		{domain.RoleL1, true, false, true, false, false},
		{domain.RoleL2, true, false, true, false, false},
		{domain.RoleL3, true, false, true, false, false},
		{domain.RoleAdmin, true, true, true, true, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			caps := auth.CapabilitiesOf(&domain.User{ID: "u1", Role: tc.role})
			assert.Equal(t, tc.workflow, caps.CanSetWorkflowFields())
			assert.Equal(t, tc.assign, caps.CanAssignTicket())
			assert.Equal(t, tc.internal, caps.CanMarkInternal())
			assert.Equal(t, tc.catalog, caps.CanManageCatalog())
			assert.Equal(t, tc.manageUsers, caps.CanManageUsers())
		})
	}
}

func TestTicketVisibility(t *testing.T) {
	own := &domain.Ticket{CreatedBy: "u1"}
	foreign := &domain.Ticket{CreatedBy: "u2"}

	endUser := auth.CapabilitiesOf(&domain.User{ID: "u1", Role: domain.RoleEndUser})
	assert.True(t, endUser.CanViewTicket(own))
	assert.False(t, endUser.CanViewTicket(foreign))
	assert.True(t, endUser.CanMutateTicket(own))
	assert.False(t, endUser.CanMutateTicket(foreign))

	agent := auth.CapabilitiesOf(&domain.User{ID: "u1", Role: domain.RoleL1})
	assert.True(t, agent.CanViewTicket(foreign))

	admin := auth.CapabilitiesOf(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	assert.True(t, admin.CanViewTicket(foreign))
}
