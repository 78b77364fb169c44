package server

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内实现，供单测与本地试跑
// 额外统计“网络往返”次数：每次公开方法调用记一次，batch 整体记一次，
// 用于验证快照读取的往返上界
type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string]*memoryHash
	sets   map[string]map[string]struct{}
	trips  int64

	// 可注入时钟，便于测试 TTL 过期
	now func() time.Time
}

type memoryHash struct {
	fields   map[string]string
	expireAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]*memoryHash),
		sets:   make(map[string]map[string]struct{}),
		now:    time.Now,
	}
}

// Trips 返回累计往返次数
func (s *MemoryStore) Trips() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips
}

// ResetTrips 归零计数，便于对单个操作断言
func (s *MemoryStore) ResetTrips() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = 0
}

// SetNow 注入时钟（仅测试使用）
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// aliveLocked 惰性过期：访问时发现超时则删除
func (s *MemoryStore) aliveLocked(key string) *memoryHash {
	h, ok := s.hashes[key]
	if !ok {
		return nil
	}
	if !h.expireAt.IsZero() && s.now().After(h.expireAt) {
		delete(s.hashes, key)
		return nil
	}
	return h
}

func (s *MemoryStore) HashSet(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.hashes[key] = &memoryHash{fields: copied, expireAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) HashGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	return s.hashGetAllLocked(key), nil
}

func (s *MemoryStore) hashGetAllLocked(key string) map[string]string {
	h := s.aliveLocked(key)
	if h == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(h.fields))
	for k, v := range h.fields {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) HashGetAllBatch(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++ // pipeline 语义：整批一次往返
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		out[i] = s.hashGetAllLocked(key)
	}
	return out, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	h := s.aliveLocked(key)
	if h == nil {
		return false, nil
	}
	h.expireAt = s.now().Add(ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	delete(s.hashes, key)
	delete(s.sets, key)
	return nil
}

func (s *MemoryStore) SetAdd(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *MemoryStore) SetRemove(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	if set, ok := s.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (s *MemoryStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips++
	set := s.sets[key]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, nil
}
