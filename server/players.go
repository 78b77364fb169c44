package server

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// 哈希字段名
const (
	fieldX        = "x"
	fieldY        = "y"
	fieldD        = "d"
	fieldName     = "name"
	fieldMapID    = "mapId"
	fieldPlayerID = "playerId"
)

// PlayerCaches 玩家信息与位置两套 TTL 缓存
// 全部为覆盖写：重复 JOIN 重置位置而不是合并旧值
type PlayerCaches struct {
	store    Store
	profiles ProfileLookup
	ttl      time.Duration
}

func NewPlayerCaches(store Store, profiles ProfileLookup, ttl time.Duration) *PlayerCaches {
	return &PlayerCaches{store: store, profiles: profiles, ttl: ttl}
}

func infoKey(playerID int64) string {
	return fmt.Sprintf("player:%d:info", playerID)
}

func positionKey(playerID int64) string {
	return fmt.Sprintf("player:%d:position", playerID)
}

// EnsureInfo 信息缓存命中则只续期，绝不回源；未命中才查档案服务
// 档案不存在返回 ErrProfileNotFound，此时不产生任何写入
func (c *PlayerCaches) EnsureInfo(ctx context.Context, mapID, playerID int64) error {
	key := infoKey(playerID)

	// EXPIRE 探测：存在即命中，顺带完成续期
	alive, err := c.store.Expire(ctx, key, c.ttl)
	if err != nil {
		return err
	}
	if alive {
		return nil
	}

	prof, err := c.profiles.GetProfile(ctx, playerID)
	if err != nil {
		return err
	}

	fields := map[string]string{
		fieldMapID: strconv.FormatInt(mapID, 10),
		fieldName:  prof.Name,
	}
	return c.store.HashSet(ctx, key, fields, c.ttl)
}

// InitializePosition 无条件写入出生点（覆盖而非合并）
func (c *PlayerCaches) InitializePosition(ctx context.Context, playerID int64, sp Spawn) error {
	return c.writePosition(ctx, playerID, sp.X, sp.Y, sp.D)
}

// UpdatePosition 整体覆盖并续期；坐标不做边界校验（客户端可信是既定取舍）
func (c *PlayerCaches) UpdatePosition(ctx context.Context, playerID int64, x, y float64, d Direction) error {
	return c.writePosition(ctx, playerID, x, y, d)
}

func (c *PlayerCaches) writePosition(ctx context.Context, playerID int64, x, y float64, d Direction) error {
	fields := map[string]string{
		fieldX: strconv.FormatFloat(x, 'f', -1, 64),
		fieldY: strconv.FormatFloat(y, 'f', -1, 64),
		fieldD: strconv.Itoa(int(d)),
	}
	return c.store.HashSet(ctx, positionKey(playerID), fields, c.ttl)
}

// ReadPosition 读取单个玩家位置；过期或缺失返回 ok=false
func (c *PlayerCaches) ReadPosition(ctx context.Context, playerID int64) (PlayerPosition, bool, error) {
	data, err := c.store.HashGetAll(ctx, positionKey(playerID))
	if err != nil {
		return PlayerPosition{}, false, err
	}
	pos, ok := parsePosition(playerID, data)
	return pos, ok, nil
}

// BatchPositions 读在线集合成员的位置快照
// 成员列表一次往返 + 全部哈希一次 pipeline 往返，人数多少都是两次
// 缺失或解析失败的条目静默跳过，不拖垮整批
func (c *PlayerCaches) BatchPositions(ctx context.Context, presence *PresenceSet, mapID int64) ([]PlayerPosition, error) {
	ids, err := presence.Members(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []PlayerPosition{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = positionKey(id)
	}
	results, err := c.store.HashGetAllBatch(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]PlayerPosition, 0, len(ids))
	for i, data := range results {
		if pos, ok := parsePosition(ids[i], data); ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

// BatchInfos 读在线集合成员的档案快照，同样的往返上界与跳过策略
func (c *PlayerCaches) BatchInfos(ctx context.Context, presence *PresenceSet, mapID int64) ([]PlayerInfo, error) {
	ids, err := presence.Members(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []PlayerInfo{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = infoKey(id)
	}
	results, err := c.store.HashGetAllBatch(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]PlayerInfo, 0, len(ids))
	for i, data := range results {
		if len(data) == 0 || data[fieldName] == "" {
			continue
		}
		out = append(out, PlayerInfo{PlayerID: ids[i], Name: data[fieldName]})
	}
	return out, nil
}

func parsePosition(playerID int64, data map[string]string) (PlayerPosition, bool) {
	if len(data) == 0 {
		return PlayerPosition{}, false
	}
	if data[fieldX] == "" || data[fieldY] == "" || data[fieldD] == "" {
		return PlayerPosition{}, false
	}
	x, err1 := strconv.ParseFloat(data[fieldX], 64)
	y, err2 := strconv.ParseFloat(data[fieldY], 64)
	d, err3 := strconv.Atoi(data[fieldD])
	if err1 != nil || err2 != nil || err3 != nil || !Direction(d).Valid() {
		Log.Errorf("invalid position data: playerId=%d data=%v", playerID, data)
		return PlayerPosition{}, false
	}
	return PlayerPosition{PlayerID: playerID, X: x, Y: y, D: Direction(d)}, true
}
