package database

import (
	"context"
	"os"
	"testing"

	"kingcatserver/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func exerciseDirectory(t *testing.T, dir UserDirectory) {
	t.Helper()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(dir.Connect(ctx, models.User{ID: "a", Name: "Alice", ClientID: "c1"}))
	must(dir.Connect(ctx, models.User{ID: "b", Name: "Bob", ClientID: "c2"}))
	// 再接続は同じユーザーのまま
	must(dir.Connect(ctx, models.User{ID: "a", Name: "Alice", ClientID: "c3"}))

	users, err := dir.List(ctx)
	must(err)
	if len(users) != 2 || users[0].ID != "a" || users[0].ClientID != "c3" {
		t.Fatalf("users = %+v", users)
	}

	// the stale connection must not remove the reconnected user
	must(dir.Disconnect(ctx, "c1"))
	must(dir.Disconnect(ctx, "c2"))
	must(dir.Disconnect(ctx, "unknown"))
	users, err = dir.List(ctx)
	must(err)
	if len(users) != 1 || users[0].ID != "a" {
		t.Fatalf("users after disconnect = %+v", users)
	}
}

func TestMemoryDirectory(t *testing.T) {
	exerciseDirectory(t, NewMemoryDirectory())
}

func TestRedisDirectory(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()
	rdb.FlushDB(ctx)
	defer rdb.FlushDB(ctx)

	exerciseDirectory(t, NewRedisDirectory(rdb, zap.NewNop()))
}
