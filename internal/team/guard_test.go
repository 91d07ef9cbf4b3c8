package team

import (
	"context"
	"testing"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/model"
)

func TestGuard_RequireMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	guard := NewGuard(f.store)
	ctx := context.Background()

	member, err := guard.RequireMember(ctx, f.team.ID, f.member.ID)
	if err != nil {
		t.Fatalf("expected member, got %v", err)
	}
	if member.Role != model.RoleMember {
		t.Fatalf("expected MEMBER role, got %s", member.Role)
	}

	if _, err := guard.RequireMember(ctx, f.team.ID, "stranger"); !apperror.HasCode(err, apperror.CodeNoPermission) {
		t.Fatalf("expected %s, got %v", apperror.CodeNoPermission, err)
	}
}

func TestGuard_RequireRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	guard := NewGuard(f.store)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		role    model.TeamRole
		wantErr bool
	}{
		{name: "leader as leader", userID: f.leader.ID, role: model.RoleLeader},
		{name: "member as member", userID: f.member.ID, role: model.RoleMember},
		{name: "member as leader", userID: f.member.ID, role: model.RoleLeader, wantErr: true},
		{name: "stranger", userID: "stranger", role: model.RoleMember, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.RequireRole(ctx, f.team.ID, tt.userID, tt.role)
			if tt.wantErr {
				if !apperror.HasCode(err, apperror.CodeNoPermission) {
					t.Fatalf("expected %s, got %v", apperror.CodeNoPermission, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestGuard_GuardLastLeader(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	guard := NewGuard(f.store)
	ctx := context.Background()

	if _, err := guard.GuardLastLeader(ctx, f.team.ID, f.leader.ID); !apperror.HasCode(err, apperror.CodeLastLeader) {
		t.Fatalf("expected last leader conflict, got %v", err)
	}

	if _, err := guard.GuardLastLeader(ctx, f.team.ID, f.member.ID); err != nil {
		t.Fatalf("members are never guarded: %v", err)
	}

	if _, err := guard.GuardLastLeader(ctx, f.team.ID, "stranger"); !apperror.HasCode(err, apperror.CodeMemberNotFound) {
		t.Fatalf("expected %s, got %v", apperror.CodeMemberNotFound, err)
	}

	second := mustUser(t, f.store, "second")
	mustMember(t, f.store, f.team.ID, second.ID, model.RoleLeader)

	if _, err := guard.GuardLastLeader(ctx, f.team.ID, f.leader.ID); err != nil {
		t.Fatalf("expected success with two leaders, got %v", err)
	}
}
