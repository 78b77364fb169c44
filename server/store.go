package server

import (
	"context"
	"time"
)

// Store 共享状态后端的能力抽象
// 会话、在线集合、玩家缓存全部经由它落在外部存储，进程内不保留权威状态
// 两个实现：RedisStore（生产）与 MemoryStore（测试）
type Store interface {
	// HashSet 整体覆盖写入哈希字段并设置 TTL
	HashSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	// HashGetAll 读取哈希全部字段；键不存在返回空 map，不报错
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	// HashGetAllBatch 批量读取多个哈希，保证只占用一次网络往返
	// 返回切片与 keys 按下标对应；不存在的键对应空 map
	HashGetAllBatch(ctx context.Context, keys []string) ([]map[string]string, error)
	// Expire 刷新 TTL；返回键是否存在
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Delete 删除键；键不存在不报错
	Delete(ctx context.Context, key string) error

	SetAdd(ctx context.Context, key, member string) error
	SetRemove(ctx context.Context, key, member string) error
	// SetMembers 返回集合成员；空集合返回空切片
	SetMembers(ctx context.Context, key string) ([]string, error)
}
