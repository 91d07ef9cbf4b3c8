package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/teamtodo/teamtodo/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 717171

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema applies every down migration in reverse order and then every
// up migration, leaving empty tables behind.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downs, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}
	ups, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}

	for i := len(downs) - 1; i >= 0; i-- {
		if err := execFile(ctx, pool, downs[i]); err != nil {
			return err
		}
	}
	for _, path := range ups {
		if err := execFile(ctx, pool, path); err != nil {
			return err
		}
	}
	return nil
}

// MigrationsDir returns the directory holding the SQL migrations.
func MigrationsDir() (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "internal", "repository", "migrations"), nil
}

func migrationFiles(suffix string) ([]string, error) {
	dir, err := MigrationsDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func execFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique string for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates a user with a unique email and API key.
func NewTestUser(t testing.TB, nickname string) *model.User {
	t.Helper()
	id := model.NewID()
	return &model.User{
		ID:           id,
		Email:        strings.ToLower(id) + "@example.com",
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		APIKey:       UniqueID("key"),
		Nickname:     nickname,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestTeam creates a team with sensible defaults.
func NewTestTeam(t testing.TB, name string) *model.Team {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Team{
		ID:        model.NewID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestMember creates a membership row.
func NewTestMember(t testing.TB, teamID, userID string, role model.TeamRole) *model.TeamMember {
	t.Helper()
	return &model.TeamMember{
		ID:       model.NewID(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestTodoList creates a todo list owned by ownerID, attached to teamID
// when it is not empty.
func NewTestTodoList(t testing.TB, teamID, ownerID string) *model.TodoList {
	t.Helper()
	return &model.TodoList{
		ID:        model.NewID(),
		TeamID:    teamID,
		OwnerID:   ownerID,
		Name:      "test list",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestTodo creates a todo in the given list.
func NewTestTodo(t testing.TB, listID, title string) *model.Todo {
	t.Helper()
	return &model.Todo{
		ID:         model.NewID(),
		TodoListID: listID,
		Title:      title,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}
