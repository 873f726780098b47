package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hyperjump/revgeo/internal/config"
	"github.com/hyperjump/revgeo/internal/models"
)

type entry struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, ttl, 12)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := c.Key(&models.ReverseQuery{Lon: 14.4378, Lat: 50.0755})

	var got entry
	hit, err := c.Get(ctx, key, &got)
	if err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, key, entry{ID: "prague", Distance: 12.5}); err != nil {
		t.Fatal(err)
	}
	hit, err = c.Get(ctx, key, &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.ID != "prague" || got.Distance != 12.5 {
		t.Errorf("got %+v", got)
	}
}

func TestRedisCache_expires(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()
	if err := c.Set(ctx, "k", entry{ID: "x"}); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(31 * time.Second)
	var got entry
	if hit, _ := c.Get(ctx, "k", &got); hit {
		t.Error("entry should have expired")
	}
}

func TestRedisCache_serverDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()
	var got entry
	if _, err := c.Get(context.Background(), "k", &got); err == nil {
		t.Error("expected error when redis is down")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

func TestKey(t *testing.T) {
	a := Key(&models.ReverseQuery{Lon: 14.4378, Lat: 50.0755, Classes: []string{"place", "highway"}}, 7)
	b := Key(&models.ReverseQuery{Lon: 14.4378, Lat: 50.0755, Classes: []string{"highway", "place"}}, 7)
	if a != b {
		t.Errorf("class order should not matter: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, keyPrefix+"u2fkb") || !strings.HasSuffix(a, ":highway,place") {
		t.Errorf("unexpected key %s", a)
	}
	far := Key(&models.ReverseQuery{Lon: -74.0, Lat: 40.7}, 7)
	if far == Key(&models.ReverseQuery{Lon: 14.4378, Lat: 50.0755}, 7) {
		t.Error("distant points must not share a key")
	}
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	c := Open(&config.CacheConfig{Addr: mr.Addr(), TTLSeconds: 60, GeohashPrecision: 8})
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.ttl != time.Minute || c.precision != 8 {
		t.Errorf("ttl=%v precision=%d", c.ttl, c.precision)
	}
}
