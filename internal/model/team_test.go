package model

import (
	"errors"
	"testing"
)

func TestParseTeamRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    TeamRole
		wantErr bool
	}{
		{"leader upper", "LEADER", RoleLeader, false},
		{"member upper", "MEMBER", RoleMember, false},
		{"leader lower", "leader", RoleLeader, false},
		{"member mixed with spaces", "  Member ", RoleMember, false},
		{"empty", "", "", true},
		{"unknown", "OWNER", "", true},
		{"admin", "admin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTeamRole(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("ParseTeamRole(%q) error = %v, want ErrInvalidRole", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTeamRole(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTeamRole(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestTeamRole_IsValid(t *testing.T) {
	t.Parallel()

	if !RoleLeader.IsValid() || !RoleMember.IsValid() {
		t.Error("known roles should be valid")
	}
	if TeamRole("leader").IsValid() {
		t.Error("lowercase literal should not be valid without parsing")
	}
}

func TestUser_Principal(t *testing.T) {
	t.Parallel()

	u := &User{ID: "u1", Email: "a@example.com", IsAdmin: true, APIKey: "secret"}
	p := u.Principal()

	if p.ID != "u1" || p.Email != "a@example.com" || !p.IsAdmin {
		t.Errorf("Principal() = %+v", p)
	}
}

func TestTodoAssignment_IsActive(t *testing.T) {
	t.Parallel()

	a := &TodoAssignment{Status: AssignmentActive}
	if !a.IsActive() {
		t.Error("ACTIVE assignment should be active")
	}
	a.Status = AssignmentInactive
	if a.IsActive() {
		t.Error("INACTIVE assignment should not be active")
	}
}
