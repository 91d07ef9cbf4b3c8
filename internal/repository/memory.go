package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
)

// Memory is an in-process Store. Transactions are serialized and roll back
// by restoring a snapshot.
type Memory struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

var _ Store = (*Memory)(nil)

type memData struct {
	users         map[string]model.User
	teams         map[string]model.Team
	members       map[string]model.TeamMember
	lists         map[string]model.TodoList
	todos         map[string]model.Todo
	assignments   map[string]model.TodoAssignment
	reminders     map[string]model.Reminder
	notifications map[string]model.Notification
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		mu: &sync.Mutex{},
		data: &memData{
			users:         make(map[string]model.User),
			teams:         make(map[string]model.Team),
			members:       make(map[string]model.TeamMember),
			lists:         make(map[string]model.TodoList),
			todos:         make(map[string]model.Todo),
			assignments:   make(map[string]model.TodoAssignment),
			reminders:     make(map[string]model.Reminder),
			notifications: make(map[string]model.Notification),
		},
	}
}

func (d *memData) clone() *memData {
	return &memData{
		users:         cloneMap(d.users),
		teams:         cloneMap(d.teams),
		members:       cloneMap(d.members),
		lists:         cloneMap(d.lists),
		todos:         cloneMap(d.todos),
		assignments:   cloneMap(d.assignments),
		reminders:     cloneMap(d.reminders),
		notifications: cloneMap(d.notifications),
	}
}

func cloneMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// do runs fn with exclusive access to the data. Inside a transaction the
// lock is already held.
func (m *Memory) do(fn func(d *memData) error) error {
	if !m.inTx {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return fn(m.data)
}

// WithTx runs fn with the store locked and restores the previous state if
// fn fails or ctx is done before it returns.
func (m *Memory) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	tx := &Memory{mu: m.mu, data: m.data, inTx: true}
	err := fn(tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		*m.data = *snapshot
		return err
	}
	return nil
}

// LockTeam is a no-op; transactions already run one at a time.
func (m *Memory) LockTeam(ctx context.Context, teamID string) error {
	if !m.inTx {
		return ErrNoTransaction
	}
	return nil
}

// LockTodo is a no-op; transactions already run one at a time.
func (m *Memory) LockTodo(ctx context.Context, todoID string) error {
	if !m.inTx {
		return ErrNoTransaction
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Users

func (m *Memory) CreateUser(ctx context.Context, user *model.User) error {
	return m.do(func(d *memData) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, user.Email) {
				return ErrEmailExists
			}
		}
		d.users[user.ID] = *user
		return nil
	})
}

func (m *Memory) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.ID == id })
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *Memory) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return apiKey != "" && u.APIKey == apiKey })
}

func (m *Memory) UpdateUserProfile(ctx context.Context, id, nickname, profileImageURL string) error {
	return m.do(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrUserNotFound
		}
		u.Nickname = nickname
		u.ProfileImageURL = profileImageURL
		d.users[id] = u
		return nil
	})
}

func (m *Memory) findUser(match func(model.User) bool) (*model.User, error) {
	var found *model.User
	err := m.do(func(d *memData) error {
		for _, u := range d.users {
			if match(u) {
				u := u
				found = &u
				return nil
			}
		}
		return ErrUserNotFound
	})
	return found, err
}

// Teams

func (m *Memory) CreateTeam(ctx context.Context, team *model.Team) error {
	return m.do(func(d *memData) error {
		d.teams[team.ID] = *team
		return nil
	})
}

func (m *Memory) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var found *model.Team
	err := m.do(func(d *memData) error {
		t, ok := d.teams[id]
		if !ok {
			return ErrTeamNotFound
		}
		found = &t
		return nil
	})
	return found, err
}

func (m *Memory) UpdateTeam(ctx context.Context, team *model.Team) error {
	return m.do(func(d *memData) error {
		existing, ok := d.teams[team.ID]
		if !ok {
			return ErrTeamNotFound
		}
		existing.Name = team.Name
		existing.Description = team.Description
		existing.UpdatedAt = team.UpdatedAt
		d.teams[team.ID] = existing
		return nil
	})
}

func (m *Memory) DeleteTeam(ctx context.Context, id string) error {
	return m.do(func(d *memData) error {
		if _, ok := d.teams[id]; !ok {
			return ErrTeamNotFound
		}
		delete(d.teams, id)
		return nil
	})
}

func (m *Memory) ListTeamsByUser(ctx context.Context, userID string) ([]*model.Team, error) {
	var teams []*model.Team
	err := m.do(func(d *memData) error {
		memberships := filterValues(d.members, func(tm model.TeamMember) bool { return tm.UserID == userID })
		sortMembers(memberships)
		teams = make([]*model.Team, 0, len(memberships))
		for _, tm := range memberships {
			if t, ok := d.teams[tm.TeamID]; ok {
				teams = append(teams, &t)
			}
		}
		return nil
	})
	return teams, err
}

// Members

func (m *Memory) AddMember(ctx context.Context, member *model.TeamMember) error {
	return m.do(func(d *memData) error {
		for _, tm := range d.members {
			if tm.TeamID == member.TeamID && tm.UserID == member.UserID {
				return ErrAlreadyMember
			}
		}
		d.members[member.ID] = *member
		return nil
	})
}

func (m *Memory) GetMember(ctx context.Context, teamID, userID string) (*model.TeamMember, error) {
	var found *model.TeamMember
	err := m.do(func(d *memData) error {
		for _, tm := range d.members {
			if tm.TeamID == teamID && tm.UserID == userID {
				tm := tm
				found = &tm
				return nil
			}
		}
		return ErrMemberNotFound
	})
	return found, err
}

func (m *Memory) ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
	var members []*model.TeamMember
	err := m.do(func(d *memData) error {
		members = filterValues(d.members, func(tm model.TeamMember) bool { return tm.TeamID == teamID })
		sortMembers(members)
		return nil
	})
	return members, err
}

func (m *Memory) CountMembersByRole(ctx context.Context, teamID string, role model.TeamRole) (int, error) {
	count := 0
	err := m.do(func(d *memData) error {
		for _, tm := range d.members {
			if tm.TeamID == teamID && tm.Role == role {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (m *Memory) UpdateMemberRole(ctx context.Context, teamID, userID string, role model.TeamRole) error {
	return m.do(func(d *memData) error {
		for id, tm := range d.members {
			if tm.TeamID == teamID && tm.UserID == userID {
				tm.Role = role
				d.members[id] = tm
				return nil
			}
		}
		return ErrMemberNotFound
	})
}

func (m *Memory) DeleteMember(ctx context.Context, teamID, userID string) error {
	return m.do(func(d *memData) error {
		for id, tm := range d.members {
			if tm.TeamID == teamID && tm.UserID == userID {
				delete(d.members, id)
				return nil
			}
		}
		return ErrMemberNotFound
	})
}

func (m *Memory) DeleteMembersByTeam(ctx context.Context, teamID string) error {
	return m.do(func(d *memData) error {
		for id, tm := range d.members {
			if tm.TeamID == teamID {
				delete(d.members, id)
			}
		}
		return nil
	})
}

// Todo lists and todos

func (m *Memory) CreateTodoList(ctx context.Context, list *model.TodoList) error {
	return m.do(func(d *memData) error {
		d.lists[list.ID] = *list
		return nil
	})
}

func (m *Memory) GetTodoList(ctx context.Context, id string) (*model.TodoList, error) {
	var found *model.TodoList
	err := m.do(func(d *memData) error {
		l, ok := d.lists[id]
		if !ok {
			return ErrTodoListNotFound
		}
		found = &l
		return nil
	})
	return found, err
}

func (m *Memory) ListTodoListsByTeam(ctx context.Context, teamID string) ([]*model.TodoList, error) {
	var lists []*model.TodoList
	err := m.do(func(d *memData) error {
		lists = filterValues(d.lists, func(l model.TodoList) bool { return l.TeamID == teamID })
		sort.Slice(lists, func(i, j int) bool {
			if !lists[i].CreatedAt.Equal(lists[j].CreatedAt) {
				return lists[i].CreatedAt.Before(lists[j].CreatedAt)
			}
			return lists[i].ID < lists[j].ID
		})
		return nil
	})
	return lists, err
}

func (m *Memory) DeleteTodoList(ctx context.Context, id string) error {
	return m.do(func(d *memData) error {
		if _, ok := d.lists[id]; !ok {
			return ErrTodoListNotFound
		}
		delete(d.lists, id)
		return nil
	})
}

func (m *Memory) CreateTodo(ctx context.Context, todo *model.Todo) error {
	return m.do(func(d *memData) error {
		if _, ok := d.lists[todo.TodoListID]; !ok {
			return ErrTodoListNotFound
		}
		d.todos[todo.ID] = *todo
		return nil
	})
}

func (m *Memory) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	var found *model.Todo
	err := m.do(func(d *memData) error {
		t, ok := d.todos[id]
		if !ok {
			return ErrTodoNotFound
		}
		found = &t
		return nil
	})
	return found, err
}

func (m *Memory) ListTodosByList(ctx context.Context, listID string) ([]*model.Todo, error) {
	var todos []*model.Todo
	err := m.do(func(d *memData) error {
		todos = filterValues(d.todos, func(t model.Todo) bool { return t.TodoListID == listID })
		sort.Slice(todos, func(i, j int) bool {
			if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
				return todos[i].CreatedAt.Before(todos[j].CreatedAt)
			}
			return todos[i].ID < todos[j].ID
		})
		return nil
	})
	return todos, err
}

func (m *Memory) DeleteTodosByList(ctx context.Context, listID string) error {
	return m.do(func(d *memData) error {
		for id, t := range d.todos {
			if t.TodoListID == listID {
				delete(d.todos, id)
			}
		}
		for id, r := range d.reminders {
			if _, ok := d.todos[r.TodoID]; !ok {
				delete(d.reminders, id)
			}
		}
		return nil
	})
}

// Assignments

func (m *Memory) ListAssignmentsByTodo(ctx context.Context, todoID string) ([]*model.TodoAssignment, error) {
	return m.listAssignments(func(a model.TodoAssignment) bool { return a.TodoID == todoID })
}

func (m *Memory) ListAssignmentsByTeam(ctx context.Context, teamID string) ([]*model.TodoAssignment, error) {
	return m.listAssignments(func(a model.TodoAssignment) bool { return a.TeamID == teamID })
}

func (m *Memory) listAssignments(match func(model.TodoAssignment) bool) ([]*model.TodoAssignment, error) {
	var out []*model.TodoAssignment
	err := m.do(func(d *memData) error {
		out = filterValues(d.assignments, match)
		sort.Slice(out, func(i, j int) bool {
			if !out[i].AssignedAt.Equal(out[j].AssignedAt) {
				return out[i].AssignedAt.After(out[j].AssignedAt)
			}
			return out[i].ID > out[j].ID
		})
		return nil
	})
	return out, err
}

func (m *Memory) CreateAssignment(ctx context.Context, a *model.TodoAssignment) error {
	return m.do(func(d *memData) error {
		d.assignments[a.ID] = *a
		return nil
	})
}

func (m *Memory) ActivateAssignment(ctx context.Context, id string, at time.Time) error {
	return m.do(func(d *memData) error {
		a, ok := d.assignments[id]
		if !ok {
			return ErrAssignmentNotFound
		}
		a.Status = model.AssignmentActive
		a.AssignedAt = at
		d.assignments[id] = a
		return nil
	})
}

func (m *Memory) DeactivateAssignments(ctx context.Context, ids []string) error {
	return m.do(func(d *memData) error {
		for _, id := range ids {
			if a, ok := d.assignments[id]; ok {
				a.Status = model.AssignmentInactive
				d.assignments[id] = a
			}
		}
		return nil
	})
}

func (m *Memory) DeactivateUserAssignments(ctx context.Context, teamID, userID string) (int, error) {
	n := 0
	err := m.do(func(d *memData) error {
		for id, a := range d.assignments {
			if a.TeamID == teamID && a.AssignedUserID == userID && a.Status == model.AssignmentActive {
				a.Status = model.AssignmentInactive
				d.assignments[id] = a
				n++
			}
		}
		return nil
	})
	return n, err
}

func (m *Memory) DeleteAssignmentsByTeam(ctx context.Context, teamID string) error {
	return m.do(func(d *memData) error {
		for id, a := range d.assignments {
			if a.TeamID == teamID {
				delete(d.assignments, id)
			}
		}
		return nil
	})
}

func (m *Memory) DeleteAssignmentsByTodo(ctx context.Context, todoID string) error {
	return m.do(func(d *memData) error {
		for id, a := range d.assignments {
			if a.TodoID == todoID {
				delete(d.assignments, id)
			}
		}
		return nil
	})
}

// Reminders and notifications

func (m *Memory) CreateReminder(ctx context.Context, r *model.Reminder) error {
	return m.do(func(d *memData) error {
		d.reminders[r.ID] = *r
		return nil
	})
}

func (m *Memory) GetReminder(ctx context.Context, id string) (*model.Reminder, error) {
	var found *model.Reminder
	err := m.do(func(d *memData) error {
		r, ok := d.reminders[id]
		if !ok {
			return ErrReminderNotFound
		}
		found = &r
		return nil
	})
	return found, err
}

func (m *Memory) CreateNotification(ctx context.Context, n *model.Notification) error {
	return m.do(func(d *memData) error {
		d.notifications[n.ID] = *n
		return nil
	})
}

func (m *Memory) ListNotificationsByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	var out []*model.Notification
	err := m.do(func(d *memData) error {
		out = filterValues(d.notifications, func(n model.Notification) bool { return n.UserID == userID })
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
		return nil
	})
	return out, err
}

func filterValues[V any](src map[string]V, match func(V) bool) []*V {
	out := make([]*V, 0)
	for _, v := range src {
		if match(v) {
			v := v
			out = append(out, &v)
		}
	}
	return out
}

func sortMembers(members []*model.TeamMember) {
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].ID < members[j].ID
	})
}
