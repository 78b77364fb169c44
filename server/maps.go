package server

import "sync"

// Spawn 地图出生点
type Spawn struct {
	X float64   `json:"x"`
	Y float64   `json:"y"`
	D Direction `json:"d"`
}

// DefaultSpawn 全局默认出生点（地图中心，朝下）
// 各地图是否需要独立出生点尚无产品结论，先按可配置处理
func DefaultSpawn() Spawn {
	return Spawn{X: DefaultSpawnX, Y: DefaultSpawnY, D: DirDown}
}

// SpawnTable 按地图查出生点，查不到回落到默认值
// 条目可经 /admin/config 热更新
type SpawnTable struct {
	mu    sync.RWMutex
	def   Spawn
	byMap map[int64]Spawn
}

func NewSpawnTable(def Spawn) *SpawnTable {
	return &SpawnTable{def: def, byMap: make(map[int64]Spawn)}
}

func (t *SpawnTable) Lookup(mapID int64) Spawn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if sp, ok := t.byMap[mapID]; ok {
		return sp
	}
	return t.def
}

// Default 返回全局默认出生点
func (t *SpawnTable) Default() Spawn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.def
}

func (t *SpawnTable) Set(mapID int64, sp Spawn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byMap[mapID] = sp
}

// Overrides 返回当前所有地图级覆盖（拷贝），供配置接口输出
func (t *SpawnTable) Overrides() map[int64]Spawn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int64]Spawn, len(t.byMap))
	for k, v := range t.byMap {
		out[k] = v
	}
	return out
}
