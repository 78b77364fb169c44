package server

import (
	"context"
	"strconv"
	"time"
)

// Session 连接与 (地图, 玩家) 的绑定，断线时凭它恢复身份
type Session struct {
	MapID    int64
	PlayerID int64
}

// SessionRegistry 会话登记表，落在共享存储，带兜底 TTL
// 同一连接任意时刻至多一条会话；Create 为覆盖写
type SessionRegistry struct {
	store Store
	ttl   time.Duration
}

func NewSessionRegistry(store Store, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{store: store, ttl: ttl}
}

func sessionKey(connID string) string {
	return "session:" + connID
}

// Create 覆盖写入会话并刷新 TTL
func (r *SessionRegistry) Create(ctx context.Context, connID string, mapID, playerID int64) error {
	fields := map[string]string{
		fieldMapID:    strconv.FormatInt(mapID, 10),
		fieldPlayerID: strconv.FormatInt(playerID, 10),
	}
	return r.store.HashSet(ctx, sessionKey(connID), fields, r.ttl)
}

// Read 查询会话；不存在（或已过期、数据损坏）返回 ok=false
func (r *SessionRegistry) Read(ctx context.Context, connID string) (Session, bool, error) {
	data, err := r.store.HashGetAll(ctx, sessionKey(connID))
	if err != nil {
		return Session{}, false, err
	}
	if len(data) == 0 {
		return Session{}, false, nil
	}
	mapID, err1 := strconv.ParseInt(data[fieldMapID], 10, 64)
	playerID, err2 := strconv.ParseInt(data[fieldPlayerID], 10, 64)
	if err1 != nil || err2 != nil {
		Log.Errorf("invalid session data: connId=%s data=%v", connID, data)
		return Session{}, false, nil
	}
	return Session{MapID: mapID, PlayerID: playerID}, true, nil
}

// Remove 删除会话并返回删除前的内容；重复删除是无害的空操作
// 显式 LEAVE 与断线补偿都会走到这里，幂等是硬要求
func (r *SessionRegistry) Remove(ctx context.Context, connID string) (Session, bool, error) {
	sess, ok, err := r.Read(ctx, connID)
	if err != nil {
		return Session{}, false, err
	}
	if !ok {
		return Session{}, false, nil
	}
	if err := r.store.Delete(ctx, sessionKey(connID)); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}
