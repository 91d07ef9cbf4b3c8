package team

import (
	"context"
	"testing"
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
	"github.com/teamtodo/teamtodo/internal/testutil"
)

type fixture struct {
	store  *repository.Memory
	team   *model.Team
	leader *model.User
	member *model.User
	todo   *model.Todo
}

// newFixture seeds a team with one LEADER, one MEMBER and a todo in a team
// list.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemory()

	leader := mustUser(t, store, "leader")
	member := mustUser(t, store, "member")

	team := testutil.NewTestTeam(t, "core")
	if err := store.CreateTeam(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	mustMember(t, store, team.ID, leader.ID, model.RoleLeader)
	mustMember(t, store, team.ID, member.ID, model.RoleMember)

	list := testutil.NewTestTodoList(t, team.ID, leader.ID)
	if err := store.CreateTodoList(ctx, list); err != nil {
		t.Fatalf("create list: %v", err)
	}
	todo := testutil.NewTestTodo(t, list.ID, "ship it")
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	return &fixture{store: store, team: team, leader: leader, member: member, todo: todo}
}

func mustUser(t *testing.T, store repository.UserStore, nickname string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, nickname)
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustMember(t *testing.T, store repository.TeamStore, teamID, userID string, role model.TeamRole) {
	t.Helper()
	if err := store.AddMember(context.Background(), testutil.NewTestMember(t, teamID, userID, role)); err != nil {
		t.Fatalf("add member: %v", err)
	}
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}
