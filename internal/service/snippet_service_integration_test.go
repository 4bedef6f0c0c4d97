//go:build integration

package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/reviewsite/internal/apperror"
	"github.com/roguepikachu/reviewsite/internal/domain"
	cachedRepo "github.com/roguepikachu/reviewsite/internal/repository/cached"
	postgresRepo "github.com/roguepikachu/reviewsite/internal/repository/postgres"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func connectPostgres(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	var dsn string
	if os.Getenv("CI") == "true" {
		dsn = os.Getenv("DATABASE_URL")
		if dsn == "" {
			t.Skip("DATABASE_URL not set in CI environment")
		}
	} else {
		pg, err := tcpostgres.RunContainer(ctx,
			tcpostgres.WithUsername("reviewsite"),
			tcpostgres.WithPassword("secret"),
			tcpostgres.WithDatabase("reviewsite"),
		)
		if err != nil {
			t.Skipf("skipping: cannot start postgres container: %v", err)
		}
		t.Cleanup(func() { _ = pg.Terminate(context.Background()) })
		host, _ := pg.Host(ctx)
		port, _ := pg.MappedPort(ctx, "5432")
		dsn = fmt.Sprintf("postgres://reviewsite:secret@%s:%s/reviewsite?sslmode=disable", host, port.Port())
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
		if i == 29 {
			t.Fatalf("Database not ready after 3 seconds")
		}
	}
	require.NoError(t, postgresRepo.EnsureSchema(ctx, pool))
	return pool
}

// TestService_IntegrationPostgres exercises the service over Postgres with a Redis cache in front.
func TestService_IntegrationPostgres(t *testing.T) {
	ctx := context.Background()
	pool := connectPostgres(ctx, t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	misuses := cachedRepo.NewMisuseRepository(postgresRepo.NewMisuseRepository(pool), rdb, time.Minute)
	snippets := cachedRepo.NewSnippetRepository(postgresRepo.NewSnippetRepository(pool), rdb, time.Minute)
	require.NoError(t, misuses.Upsert(ctx, domain.Misuse{ID: "it-1", ProjectID: "mubench", VersionID: "42", File: "Foo.java"}))

	svc := NewService(snippets, misuses, RealClock{})

	first, err := svc.CreateSnippet(ctx, CreateSnippetInput{ProjectID: "mubench", VersionID: "42", MisuseID: "it-1", Code: "foo();", Line: 10})
	require.NoError(t, err)
	second, err := svc.CreateSnippet(ctx, CreateSnippetInput{ProjectID: "mubench", VersionID: "42", MisuseID: "it-1", Code: "bar();", Line: 10})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	_, items, err := svc.ListMisuseSnippets(ctx, "it-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "bar();", items[0].Code)

	_, err = svc.CreateSnippet(ctx, CreateSnippetInput{ProjectID: "mubench", VersionID: "42", MisuseID: "missing", Code: "x", Line: 1})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.UpsertSnippet(ctx, "mubench", "42", fmt.Sprintf("c%d();", i), 77, "Foo.java")
			if err != nil {
				t.Errorf("concurrent upsert: %v", err)
			}
		}(i)
	}
	wg.Wait()
	_, items, err = svc.ListMisuseSnippets(ctx, "it-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, svc.DeleteSnippet(ctx, first.ID))
	require.ErrorIs(t, svc.DeleteSnippet(ctx, first.ID), apperror.ErrNotFound)
	_, err = svc.GetSnippet(ctx, first.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
