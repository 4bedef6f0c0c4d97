package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

func TestFakeRepo_UpsertKeepsOneRowPerKey(t *testing.T) {
	ctx := context.Background()
	ids := []string{"a", "b"}
	r := NewSnippetRepository(WithIDs(func() string { id := ids[0]; ids = ids[1:]; return id }))
	now := time.Now()

	first, err := r.Upsert(ctx, domain.Snippet{ProjectID: "p", VersionID: "v", File: "F.java", Line: 3, Code: "foo();", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := r.Upsert(ctx, domain.Snippet{ProjectID: "p", VersionID: "v", File: "F.java", Line: 3, Code: "bar();", UpdatedAt: now.Add(time.Second)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != "a" || second.ID != "a" {
		t.Fatalf("want same id a, got %s and %s", first.ID, second.ID)
	}
	if second.Code != "bar();" || !second.CreatedAt.Equal(now) {
		t.Fatalf("update mismatch: %+v", second)
	}
	if r.Len() != 1 {
		t.Fatalf("want 1 row, got %d", r.Len())
	}
}

func TestFakeRepo_ListByFileOrdersByLine(t *testing.T) {
	r := NewSnippetRepository(WithItems(
		domain.Snippet{ID: "2", ProjectID: "p", VersionID: "v", File: "F.java", Line: 20},
		domain.Snippet{ID: "1", ProjectID: "p", VersionID: "v", File: "F.java", Line: 5},
		domain.Snippet{ID: "3", ProjectID: "p", VersionID: "v", File: "G.java", Line: 1},
	))
	got, err := r.ListByFile(context.Background(), "p", "v", "F.java")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestFakeRepo_DeleteMissing(t *testing.T) {
	r := NewSnippetRepository()
	if _, err := r.Delete(context.Background(), "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFakeRepo_DeleteFreesKey(t *testing.T) {
	ctx := context.Background()
	s := domain.Snippet{ID: "1", ProjectID: "p", VersionID: "v", File: "F.java", Line: 1}
	r := NewSnippetRepository(WithItems(s))
	if _, err := r.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.FindByKey(ctx, s.Key()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("key should be free, got %v", err)
	}
}

func TestFakeMisuseRepo(t *testing.T) {
	r := NewMisuseRepository(domain.Misuse{ID: "1", File: "Foo.java"})
	m, err := r.FindByID(context.Background(), "1")
	if err != nil || m.File != "Foo.java" {
		t.Fatalf("find: %+v %v", m, err)
	}
	if _, err := r.FindByID(context.Background(), "2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if r.ReadCount() != 2 {
		t.Fatalf("want 2 reads, got %d", r.ReadCount())
	}
}
