package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"kingcatserver/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// UserDirectory is the list of users currently connected to the server.
// Connect is idempotent by user id and refreshes the connection id.
type UserDirectory interface {
	Connect(ctx context.Context, user models.User) error
	Disconnect(ctx context.Context, clientID string) error
	List(ctx context.Context) ([]models.User, error)
}

// MemoryDirectory keeps the directory in process.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]models.User)}
}

func (m *MemoryDirectory) Connect(_ context.Context, user models.User) error {
	m.mu.Lock()
	m.users[user.ID] = user
	m.mu.Unlock()
	return nil
}

func (m *MemoryDirectory) Disconnect(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.ClientID == clientID {
			delete(m.users, id)
		}
	}
	return nil
}

func (m *MemoryDirectory) List(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	m.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// クライアントIDの対応は24時間で失効
const clientTTL = 24 * time.Hour

const usersKey = "kingcat:users"

func userKey(userID string) string     { return "kingcat:user:" + userID }
func clientKey(clientID string) string { return "kingcat:client:" + clientID }

// RedisDirectory shares the directory between server instances.
type RedisDirectory struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisDirectory(rdb *redis.Client, logger *zap.Logger) *RedisDirectory {
	return &RedisDirectory{rdb: rdb, logger: logger}
}

func (d *RedisDirectory) Connect(ctx context.Context, user models.User) error {
	_, err := d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(user.ID), "id", user.ID, "name", user.Name, "clientId", user.ClientID)
		pipe.SAdd(ctx, usersKey, user.ID)
		if user.ClientID != "" {
			pipe.Set(ctx, clientKey(user.ClientID), user.ID, clientTTL)
		}
		return nil
	})
	if err != nil {
		d.logger.Error("Error storing user in Redis", zap.String("userID", user.ID), zap.Error(err))
	}
	return err
}

// Disconnect removes the user only while clientID is still its current
// connection, so a reconnect on another socket is not undone.
func (d *RedisDirectory) Disconnect(ctx context.Context, clientID string) error {
	userID, err := d.rdb.Get(ctx, clientKey(clientID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	current, err := d.rdb.HGet(ctx, userKey(userID), "clientId").Result()
	if err != nil && err != redis.Nil {
		return err
	}
	_, err = d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, clientKey(clientID))
		if current == clientID {
			pipe.SRem(ctx, usersKey, userID)
			pipe.Del(ctx, userKey(userID))
		}
		return nil
	})
	return err
}

func (d *RedisDirectory) List(ctx context.Context) ([]models.User, error) {
	ids, err := d.rdb.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		fields, err := d.rdb.HGetAll(ctx, userKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		users = append(users, models.User{ID: fields["id"], Name: fields["name"], ClientID: fields["clientId"]})
	}
	return users, nil
}
