package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProfiles 记录回源次数的档案表
type countingProfiles struct {
	table StaticProfiles
	calls int
}

func (c *countingProfiles) GetProfile(ctx context.Context, playerID int64) (Profile, error) {
	c.calls++
	return c.table.GetProfile(ctx, playerID)
}

func newTestCaches() (*PlayerCaches, *MemoryStore, *countingProfiles) {
	store := NewMemoryStore()
	profiles := &countingProfiles{table: StaticProfiles{
		42: {Name: "Ann"},
		7:  {Name: "Bob"},
		9:  {Name: "Cat"},
	}}
	return NewPlayerCaches(store, profiles, 30*time.Minute), store, profiles
}

func TestEnsureInfoLoadsOnMiss(t *testing.T) {
	caches, store, profiles := newTestCaches()
	ctx := context.Background()

	require.NoError(t, caches.EnsureInfo(ctx, 1, 42))
	assert.Equal(t, 1, profiles.calls)

	data, err := store.HashGetAll(ctx, infoKey(42))
	require.NoError(t, err)
	assert.Equal(t, "Ann", data[fieldName])
	assert.Equal(t, "1", data[fieldMapID])
}

// 缓存命中契约：TTL 窗口内重复 JOIN 不得再查档案服务
func TestEnsureInfoHitSkipsProfileLookup(t *testing.T) {
	caches, _, profiles := newTestCaches()
	ctx := context.Background()

	require.NoError(t, caches.EnsureInfo(ctx, 1, 42))
	require.NoError(t, caches.EnsureInfo(ctx, 1, 42))
	require.NoError(t, caches.EnsureInfo(ctx, 1, 42))
	assert.Equal(t, 1, profiles.calls)
}

func TestEnsureInfoProfileNotFound(t *testing.T) {
	caches, store, _ := newTestCaches()
	ctx := context.Background()

	err := caches.EnsureInfo(ctx, 1, 404)
	require.ErrorIs(t, err, ErrProfileNotFound)

	// 失败时不能留下半截数据
	data, err := store.HashGetAll(ctx, infoKey(404))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestInitializePositionOverwrites(t *testing.T) {
	caches, _, _ := newTestCaches()
	ctx := context.Background()

	require.NoError(t, caches.UpdatePosition(ctx, 42, 123, 456, DirLeft))
	// 重新入场重置出生点，不合并旧值
	require.NoError(t, caches.InitializePosition(ctx, 42, Spawn{X: 800, Y: 488, D: DirDown}))

	pos, ok, err := caches.ReadPosition(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, PlayerPosition{PlayerID: 42, X: 800, Y: 488, D: DirDown}, pos)
}

func TestUpdatePositionReadBack(t *testing.T) {
	caches, _, _ := newTestCaches()
	ctx := context.Background()

	require.NoError(t, caches.UpdatePosition(ctx, 42, 10.5, 20.25, DirLeft))

	pos, ok, err := caches.ReadPosition(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, PlayerPosition{PlayerID: 42, X: 10.5, Y: 20.25, D: DirLeft}, pos)
}

// 快照读取的往返上界：成员列表 1 次 + 全部位置哈希 1 次，与人数无关
func TestBatchPositionsTwoTrips(t *testing.T) {
	caches, store, _ := newTestCaches()
	presence := NewPresenceSet(store)
	ctx := context.Background()

	for i, id := range []int64{1, 2, 3} {
		require.NoError(t, presence.Add(ctx, 5, id))
		require.NoError(t, caches.UpdatePosition(ctx, id, float64(10*i), float64(20*i), DirUp))
	}

	store.ResetTrips()
	positions, err := caches.BatchPositions(ctx, presence, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, store.Trips())
	require.Len(t, positions, 3)
}

func TestBatchPositionsSkipsMissingAndCorrupt(t *testing.T) {
	caches, store, _ := newTestCaches()
	presence := NewPresenceSet(store)
	ctx := context.Background()

	require.NoError(t, presence.Add(ctx, 5, 1))
	require.NoError(t, presence.Add(ctx, 5, 2)) // 位置已过期（从未写入）
	require.NoError(t, presence.Add(ctx, 5, 3)) // 数据损坏
	require.NoError(t, caches.UpdatePosition(ctx, 1, 1, 2, DirUp))
	require.NoError(t, store.HashSet(ctx, positionKey(3),
		map[string]string{fieldX: "nan?", fieldY: "2", fieldD: "1"}, time.Hour))

	positions, err := caches.BatchPositions(ctx, presence, 5)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.EqualValues(t, 1, positions[0].PlayerID)
}

func TestBatchPositionsEmptyMap(t *testing.T) {
	caches, store, _ := newTestCaches()
	presence := NewPresenceSet(store)

	positions, err := caches.BatchPositions(context.Background(), presence, 99)
	require.NoError(t, err)
	assert.NotNil(t, positions)
	assert.Empty(t, positions)
}

func TestBatchInfos(t *testing.T) {
	caches, store, _ := newTestCaches()
	presence := NewPresenceSet(store)
	ctx := context.Background()

	require.NoError(t, presence.Add(ctx, 5, 42))
	require.NoError(t, presence.Add(ctx, 5, 7))
	require.NoError(t, caches.EnsureInfo(ctx, 5, 42))
	require.NoError(t, caches.EnsureInfo(ctx, 5, 7))

	infos, err := caches.BatchInfos(ctx, presence, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []PlayerInfo{
		{PlayerID: 42, Name: "Ann"},
		{PlayerID: 7, Name: "Bob"},
	}, infos)
}
