package server

import (
	"context"
	"fmt"
	"strconv"
)

// PresenceSet 每张地图的在线玩家集合
type PresenceSet struct {
	store Store
}

func NewPresenceSet(store Store) *PresenceSet {
	return &PresenceSet{store: store}
}

func presenceKey(mapID int64) string {
	return fmt.Sprintf("map:%d:players", mapID)
}

// Add 幂等加入
func (p *PresenceSet) Add(ctx context.Context, mapID, playerID int64) error {
	return p.store.SetAdd(ctx, presenceKey(mapID), strconv.FormatInt(playerID, 10))
}

// Remove 幂等移除，成员不存在不算错
func (p *PresenceSet) Remove(ctx context.Context, mapID, playerID int64) error {
	return p.store.SetRemove(ctx, presenceKey(mapID), strconv.FormatInt(playerID, 10))
}

// Members 返回在线玩家 ID；无人在线返回空切片
func (p *PresenceSet) Members(ctx context.Context, mapID int64) ([]int64, error) {
	raw, err := p.store.SetMembers(ctx, presenceKey(mapID))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(raw))
	for _, m := range raw {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			Log.Errorf("invalid presence member: mapId=%d member=%q", mapID, m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
