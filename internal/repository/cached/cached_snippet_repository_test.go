package cached

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/internal/repository/fake"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func fooSnippet(id string, line int, code string) domain.Snippet {
	return domain.Snippet{ID: id, ProjectID: "mubench", VersionID: "42", File: "Foo.java", Line: line, Code: code, CreatedAt: time.Now().UTC()}
}

func TestCachedRepository_Roundtrip(t *testing.T) {
	ctx := context.Background()
	primary := fake.NewSnippetRepository()
	mr, rcli := newRedis(t)
	repo := NewSnippetRepository(primary, rcli, time.Minute)

	if _, err := repo.Upsert(ctx, fooSnippet("id1", 1, "hello")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	mr.FastForward(invalidationHold + time.Second)
	got, err := repo.FindByID(ctx, "id1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "id1" {
		t.Fatalf("wrong id: %s", got.ID)
	}

	// ensure snippet is stored in cache JSON
	gotStr, gerr := rcli.Get(ctx, keySnippet("id1")).Result()
	if gerr != nil {
		t.Fatalf("cache get: %v", gerr)
	}
	var cached domain.Snippet
	if err := json.Unmarshal([]byte(gotStr), &cached); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cached.Code != "hello" {
		t.Fatalf("cache mismatch: %+v", cached)
	}
}

func TestCachedRepository_CacheHit(t *testing.T) {
	ctx := context.Background()
	primary := fake.NewSnippetRepository()
	mr, rcli := newRedis(t)
	repo := NewSnippetRepository(primary, rcli, time.Minute)

	if _, err := repo.Upsert(ctx, fooSnippet("cached", 1, "x")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	mr.FastForward(invalidationHold + time.Second)
	if _, err := repo.FindByID(ctx, "cached"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	// Remove from primary behind the cache's back to prove a cache hit
	if _, err := primary.Delete(ctx, "cached"); err != nil {
		t.Fatalf("primary delete: %v", err)
	}
	got, err := repo.FindByID(ctx, "cached")
	if err != nil {
		t.Fatalf("cached find: %v", err)
	}
	if got.ID != "cached" {
		t.Fatalf("expected cached snippet, got %s", got.ID)
	}
}

func TestCachedRepository_CacheMiss_NotFound(t *testing.T) {
	_, rcli := newRedis(t)
	repo := NewSnippetRepository(fake.NewSnippetRepository(), rcli, time.Minute)
	_, err := repo.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCachedRepository_UpsertInvalidatesFileList(t *testing.T) {
	ctx := context.Background()
	mr, rcli := newRedis(t)
	repo := NewSnippetRepository(fake.NewSnippetRepository(), rcli, time.Minute)

	if _, err := repo.Upsert(ctx, fooSnippet("a", 1, "x")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	mr.FastForward(invalidationHold + time.Second)
	lst, err := repo.ListByFile(ctx, "mubench", "42", "Foo.java")
	if err != nil || len(lst) != 1 {
		t.Fatalf("list: %v %d", err, len(lst))
	}
	if _, err := rcli.Get(ctx, keyFileList("mubench", "42", "Foo.java")).Result(); err != nil {
		t.Fatalf("list should be cached: %v", err)
	}

	if _, err := repo.Upsert(ctx, fooSnippet("b", 2, "y")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	lst, err = repo.ListByFile(ctx, "mubench", "42", "Foo.java")
	if err != nil || len(lst) != 2 {
		t.Fatalf("stale list after upsert: %v %d", err, len(lst))
	}
}

func TestCachedRepository_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	_, rcli := newRedis(t)
	repo := NewSnippetRepository(fake.NewSnippetRepository(), rcli, time.Minute)

	if _, err := repo.Upsert(ctx, fooSnippet("a", 1, "x")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_, _ = repo.ListByFile(ctx, "mubench", "42", "Foo.java")

	if _, err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	lst, err := repo.ListByFile(ctx, "mubench", "42", "Foo.java")
	if err != nil || len(lst) != 0 {
		t.Fatalf("want empty list after delete: %v %d", err, len(lst))
	}
	if _, err := repo.Delete(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestCachedRepository_TTL(t *testing.T) {
	ctx := context.Background()
	mr, rcli := newRedis(t)
	repo := NewSnippetRepository(fake.NewSnippetRepository(), rcli, 10*time.Second)

	if _, err := repo.Upsert(ctx, fooSnippet("exp1", 1, "x")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	mr.FastForward(invalidationHold + time.Second)
	if _, err := repo.FindByID(ctx, "exp1"); err != nil {
		t.Fatalf("find: %v", err)
	}
	if ttl := mr.TTL(keySnippet("exp1")); ttl <= 0 || ttl > 10*time.Second {
		t.Fatalf("want entry ttl within 10s, got %v", ttl)
	}
	mr.FastForward(11 * time.Second)
	if _, err := rcli.Get(ctx, keySnippet("exp1")).Result(); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected key to expire in cache, got %v", err)
	}
}

func TestCachedRepository_RedisDownFallsBackToPrimary(t *testing.T) {
	ctx := context.Background()
	mr, rcli := newRedis(t)
	repo := NewSnippetRepository(fake.NewSnippetRepository(), rcli, time.Minute)
	mr.Close()

	out, err := repo.Upsert(ctx, fooSnippet("a", 1, "x"))
	if err != nil {
		t.Fatalf("upsert must not depend on cache: %v", err)
	}
	got, err := repo.FindByID(ctx, out.ID)
	if err != nil || got.Code != "x" {
		t.Fatalf("find: %+v %v", got, err)
	}
}

// gatedPrimary parks one Upsert (matched by code) after it commits, and
// optionally one FindByID after it has read, until release is closed.
type gatedPrimary struct {
	*fake.SnippetRepository
	holdCode  string
	holdRead  bool
	reached   chan struct{}
	release   chan struct{}
	reachOnce sync.Once
}

func newGatedPrimary() *gatedPrimary {
	return &gatedPrimary{
		SnippetRepository: fake.NewSnippetRepository(),
		reached:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (g *gatedPrimary) park() {
	g.reachOnce.Do(func() { close(g.reached) })
	<-g.release
}

func (g *gatedPrimary) Upsert(ctx context.Context, s domain.Snippet) (domain.Snippet, error) {
	out, err := g.SnippetRepository.Upsert(ctx, s)
	if err == nil && g.holdCode != "" && s.Code == g.holdCode {
		g.park()
	}
	return out, err
}

func (g *gatedPrimary) FindByID(ctx context.Context, id string) (domain.Snippet, error) {
	out, err := g.SnippetRepository.FindByID(ctx, id)
	if g.holdRead {
		g.holdRead = false
		g.park()
	}
	return out, err
}

func TestCachedRepository_RacingUpsertsServeLastCommit(t *testing.T) {
	ctx := context.Background()
	_, rcli := newRedis(t)
	primary := newGatedPrimary()
	primary.holdCode = "A"
	repo := NewSnippetRepository(primary, rcli, time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := repo.Upsert(ctx, fooSnippet("id-a", 10, "A"))
		done <- err
	}()
	<-primary.reached

	// B commits after A but finishes its cache work first
	out, err := repo.Upsert(ctx, fooSnippet("id-b", 10, "B"))
	if err != nil {
		t.Fatalf("upsert B: %v", err)
	}
	close(primary.release)
	if err := <-done; err != nil {
		t.Fatalf("upsert A: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := repo.FindByID(ctx, out.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Code != "B" {
			t.Fatalf("read %d: want last committed code B, got %q", i, got.Code)
		}
	}
	lst, err := repo.ListByFile(ctx, "mubench", "42", "Foo.java")
	if err != nil || len(lst) != 1 || lst[0].Code != "B" {
		t.Fatalf("list: %+v %v", lst, err)
	}
}

func TestCachedRepository_ReadRacingDeleteDoesNotRefill(t *testing.T) {
	ctx := context.Background()
	mr, rcli := newRedis(t)
	primary := newGatedPrimary()
	repo := NewSnippetRepository(primary, rcli, time.Minute)

	if _, err := repo.Upsert(ctx, fooSnippet("a", 1, "x")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	mr.FastForward(invalidationHold + time.Second)

	primary.holdRead = true
	done := make(chan error, 1)
	go func() {
		_, err := repo.FindByID(ctx, "a")
		done <- err
	}()
	<-primary.reached

	if _, err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(primary.release)
	if err := <-done; err != nil {
		t.Fatalf("racing read: %v", err)
	}

	if _, err := repo.FindByID(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	mr.FastForward(invalidationHold + time.Second)
	if _, err := repo.FindByID(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound once the hold expires, got %v", err)
	}
}

func TestCachedMisuseRepository(t *testing.T) {
	ctx := context.Background()
	_, rcli := newRedis(t)
	primary := fake.NewMisuseRepository(domain.Misuse{ID: "1", File: "Foo.java"})
	repo := NewMisuseRepository(primary, rcli, time.Minute)

	for i := 0; i < 3; i++ {
		m, err := repo.FindByID(ctx, "1")
		if err != nil || m.File != "Foo.java" {
			t.Fatalf("find: %+v %v", m, err)
		}
	}
	if primary.ReadCount() != 1 {
		t.Fatalf("want 1 primary read, got %d", primary.ReadCount())
	}

	if err := repo.Upsert(ctx, domain.Misuse{ID: "1", File: "Bar.java"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	m, err := repo.FindByID(ctx, "1")
	if err != nil || m.File != "Bar.java" {
		t.Fatalf("stale misuse after upsert: %+v %v", m, err)
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCachedMisuseRepository_ConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	_, rcli := newRedis(t)
	primary := fake.NewMisuseRepository(domain.Misuse{ID: "1", File: "Foo.java"})
	repo := NewMisuseRepository(primary, rcli, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.FindByID(ctx, "1"); err != nil {
				t.Errorf("find: %v", err)
			}
		}()
	}
	wg.Wait()
	if primary.ReadCount() < 1 {
		t.Fatalf("primary never read")
	}
}
