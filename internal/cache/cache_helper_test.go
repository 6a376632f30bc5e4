package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedPaper struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute_FetchesOnceThenServesFromCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedPaper{ID: "p1", Title: "Physics P1"}, nil
	}

	for i := 0; i < 3; i++ {
		var got cachedPaper
		if err := cm.Paper.CacheOrExecute(ctx, "id:p1", &got, PaperCacheConfig.TTL, fetch); err != nil {
			t.Fatalf("CacheOrExecute() error = %v", err)
		}
		if got.Title != "Physics P1" {
			t.Errorf("Title = %q, want %q", got.Title, "Physics P1")
		}
	}

	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if !mr.Exists("paper:id:p1") {
		t.Error("expected key paper:id:p1 to be stored")
	}

	mr.FastForward(PaperCacheConfig.TTL + time.Second)
	if mr.Exists("paper:id:p1") {
		t.Error("expected key to expire after TTL")
	}
}

func TestCacheOrExecute_FetchErrorNotCached(t *testing.T) {
	cm, mr := newTestManager(t)
	wantErr := errors.New("boom")

	var got cachedPaper
	err := cm.Paper.CacheOrExecute(context.Background(), "id:missing", &got, time.Minute, func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if mr.Exists("paper:id:missing") {
		t.Error("failed fetch must not populate the cache")
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	var got cachedPaper
	if err := cm.Stats.Get(ctx, PaperStatsKey, &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() error = %v, want ErrCacheNotAvailable", err)
	}
	if err := cm.Stats.Set(ctx, PaperStatsKey, got, time.Minute); err != nil {
		t.Errorf("Set() error = %v, want nil", err)
	}

	err := cm.Paper.CacheOrExecute(ctx, "id:p1", &got, time.Minute, func() (interface{}, error) {
		return cachedPaper{ID: "p1"}, nil
	})
	if err != nil || got.ID != "p1" {
		t.Errorf("CacheOrExecute() = (%+v, %v), want passthrough", got, err)
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("HealthCheck() error = %v, want ErrCacheNotAvailable", err)
	}
}

func TestInvalidatePaperCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	if err := cm.Paper.Set(ctx, "id:p1", cachedPaper{ID: "p1"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := cm.Paper.Set(ctx, "id:p2", cachedPaper{ID: "p2"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := cm.Stats.Set(ctx, PaperStatsKey, map[string]int{"totalPapers": 2}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := cm.Stats.Set(ctx, "papers:IGCSE", map[string]int{"totalPapers": 1}, time.Minute); err != nil {
		t.Fatal(err)
	}

	InvalidatePaperCache(ctx, cm, "p1")

	if mr.Exists("paper:id:p1") {
		t.Error("paper:id:p1 should be removed")
	}
	if !mr.Exists("paper:id:p2") {
		t.Error("paper:id:p2 should be kept")
	}
	if mr.Exists("stats:papers") || mr.Exists("stats:papers:IGCSE") {
		t.Error("every stats key should be removed")
	}
}

func TestInvalidatePattern(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for _, key := range []string{"id:a", "id:b", "other"} {
		if err := cm.Admin.Set(ctx, key, key, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	SafeInvalidatePattern(ctx, cm.Admin, "id:*")

	if mr.Exists("admin:id:a") || mr.Exists("admin:id:b") {
		t.Error("keys matching id:* should be removed")
	}
	if !mr.Exists("admin:other") {
		t.Error("admin:other should be kept")
	}
}
