package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "stayhub/internal/adapters/redis"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	// miss before set
	var got payload
	ok, err := c.Get(ctx, "k1", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss before set")
	}

	if err := c.Set(ctx, "k1", payload{Name: "loft", Count: 3}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "k1", &got)
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if got.Name != "loft" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}

	if err := c.Del(ctx, "k1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, _ = c.Get(ctx, "k1", &got)
	if ok {
		t.Fatalf("expected miss after del")
	}
}

func TestCache_SetNXLock(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock:trends:austin", 1, 8*time.Second)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}
	ok, err = c.SetNX(ctx, "lock:trends:austin", 1, 8*time.Second)
	if err != nil {
		t.Fatalf("second SetNX: %v", err)
	}
	if ok {
		t.Fatalf("second SetNX should lose while the lock is held")
	}

	// lock expires, the next attempt wins again
	mr.FastForward(9 * time.Second)
	ok, err = c.SetNX(ctx, "lock:trends:austin", 1, 8*time.Second)
	if err != nil || !ok {
		t.Fatalf("SetNX after expiry: ok=%v err=%v", ok, err)
	}
}
