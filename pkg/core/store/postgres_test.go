package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies sql/postgres migrations.
// Requires Docker; enabled with VALUATION_PG_TESTS=1.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("VALUATION_PG_TESTS") == "" {
		t.Skip("set VALUATION_PG_TESTS=1 to run PostgreSQL tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runMigrations(t, ctx, pool)
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	dir := filepath.Join(findProjectRoot(t), "sql", "postgres")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		sql, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "failed to execute migration: %s", f)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func TestPostgres_ValuationRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewValuationRepo(pool)

	v := &Valuation{Name: "Acme", Model: testModel()}
	require.NoError(t, repo.Save(ctx, v))
	require.NotEmpty(t, v.ID)

	got, err := repo.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, v.Model.RevenueGrowth, got.Model.RevenueGrowth)
	assert.InDelta(t, 10.0, *got.Model.WaccOverride, 1e-9)

	_, err = repo.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_ScenarioUpsert(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	v := &Valuation{Name: "Acme", Model: testModel()}
	require.NoError(t, NewValuationRepo(pool).Save(ctx, v))

	repo := NewScenarioRepo(pool)
	require.NoError(t, repo.Upsert(ctx, v.ID, 2, testScenario("WACC (±2%)", 100, 200)))
	require.NoError(t, repo.Upsert(ctx, v.ID, 0, testScenario("Crecimiento de ingresos (±5%)", 90, 110)))
	require.NoError(t, repo.Upsert(ctx, v.ID, 2, testScenario("WACC (±2%)", 150, 250)))

	list, err := repo.ListByValuation(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Crecimiento de ingresos (±5%)", list[0].Name)
	assert.InDelta(t, 150.0, list[1].MinValue, 1e-9)
	require.NotNil(t, list[1].MinModel)
	assert.Equal(t, "Acme", list[1].MinModel.Name)
}
