package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleEmployee, ParseRole("employee"))
	assert.Equal(t, RoleClient, ParseRole(" client "))
	assert.Equal(t, RoleNone, ParseRole(""))
	assert.Equal(t, RoleNone, ParseRole("superuser"))
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleEmployee.IsStaff())
	assert.False(t, RoleClient.IsStaff())
	assert.False(t, RoleNone.IsStaff())
	assert.False(t, RoleNone.Assignable())
}
