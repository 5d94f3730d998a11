package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnkhanh/scl-academy-backend/models"
)

// RenderStatus là trạng thái một lần render video, tra cứu theo handle
type RenderStatus struct {
	Handle    string            `json:"handle"`
	SessionID string            `json:"session_id"`
	BlockID   string            `json:"block_id"`
	State     models.VideoState `json:"state"`
	URL       string            `json:"url,omitempty"`
	Error     string            `json:"error,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type RenderStatuses interface {
	Put(ctx context.Context, st RenderStatus) error
	Get(ctx context.Context, handle string) (RenderStatus, error)
}

// MemoryRenderStatuses dùng khi không cấu hình Redis
type MemoryRenderStatuses struct {
	mu    sync.RWMutex
	items map[string]RenderStatus
}

func NewMemoryRenderStatuses() *MemoryRenderStatuses {
	return &MemoryRenderStatuses{items: make(map[string]RenderStatus)}
}

func (m *MemoryRenderStatuses) Put(ctx context.Context, st RenderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[st.Handle] = st
	return nil
}

func (m *MemoryRenderStatuses) Get(ctx context.Context, handle string) (RenderStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.items[handle]
	if !ok {
		return RenderStatus{}, ErrNotFound
	}
	return st, nil
}

// RedisRenderStatuses lưu trạng thái render với TTL để nhiều instance cùng đọc
type RedisRenderStatuses struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRenderStatuses(addr, password string, db int, ttl time.Duration) (*RedisRenderStatuses, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRenderStatuses{client: client, ttl: ttl}, nil
}

func renderKey(handle string) string {
	return "academy:render:" + handle
}

func (r *RedisRenderStatuses) Put(ctx context.Context, st RenderStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, renderKey(st.Handle), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store render status: %w", err)
	}
	return nil
}

func (r *RedisRenderStatuses) Get(ctx context.Context, handle string) (RenderStatus, error) {
	data, err := r.client.Get(ctx, renderKey(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return RenderStatus{}, ErrNotFound
	}
	if err != nil {
		return RenderStatus{}, fmt.Errorf("load render status: %w", err)
	}
	var st RenderStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return RenderStatus{}, fmt.Errorf("decode render status: %w", err)
	}
	return st, nil
}

func (r *RedisRenderStatuses) Close() error {
	return r.client.Close()
}
