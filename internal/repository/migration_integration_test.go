//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamtodo/teamtodo/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)

	tables := []string{
		"users",
		"teams",
		"team_members",
		"todo_lists",
		"todos",
		"todo_assignments",
		"reminders",
		"notifications",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_TeamMembersSchema(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)

	for _, col := range []string{"id", "team_id", "user_id", "role", "joined_at"} {
		exists, err := columnExists(ctx, pool, "team_members", col)
		if err != nil {
			t.Fatalf("columnExists failed: %v", err)
		}
		if !exists {
			t.Errorf("Column %q should exist in team_members table", col)
		}
	}
}

func TestIntegrationMigration_RoleConstraint(t *testing.T) {
	ctx, pool, _ := newMigrationTestEnv(t)

	_, err := pool.Exec(ctx, `
		INSERT INTO team_members (id, team_id, user_id, role)
		VALUES ('m', 't', 'u', 'OWNER')
	`)
	if err == nil {
		t.Error("Expected constraint violation for unknown role")
	}
}

func TestIntegrationMigration_DownAndUp(t *testing.T) {
	ctx, pool, dbURL := newMigrationTestEnv(t)

	m, err := NewMigrator(dbURL)
	if err != nil {
		t.Fatalf("NewMigrator failed: %v", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("down: %v", err)
	}

	exists, err := tableExists(ctx, pool, "todo_assignments")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("todo_assignments should not exist after rollback")
	}

	if err := RunMigrations(dbURL); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	// Already up to date.
	if err := RunMigrations(dbURL); err != nil {
		t.Fatalf("second apply should not fail: %v", err)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := RunMigrations(dbURL); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return ctx, pool, dbURL
}
