package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreateReadRemove(t *testing.T) {
	s := NewMemoryStore()
	reg := NewSessionRegistry(s, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, "conn-1", 1, 42))

	sess, ok, err := reg.Read(ctx, "conn-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Session{MapID: 1, PlayerID: 42}, sess)

	prev, ok, err := reg.Remove(ctx, "conn-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Session{MapID: 1, PlayerID: 42}, prev)

	_, ok, err = reg.Read(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// 显式 LEAVE 与断线补偿都会删会话，第二次必须是无害的空操作
func TestSessionRemoveIdempotent(t *testing.T) {
	s := NewMemoryStore()
	reg := NewSessionRegistry(s, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, "conn-1", 1, 42))

	_, ok, err := reg.Remove(ctx, "conn-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = reg.Remove(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// 覆盖语义：同一连接重复 JOIN 只留最后一条绑定
func TestSessionCreateOverwrites(t *testing.T) {
	s := NewMemoryStore()
	reg := NewSessionRegistry(s, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, reg.Create(ctx, "conn-1", 1, 42))
	require.NoError(t, reg.Create(ctx, "conn-1", 2, 7))

	sess, ok, err := reg.Read(ctx, "conn-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Session{MapID: 2, PlayerID: 7}, sess)
}

func TestSessionCorruptDataReadsAsAbsent(t *testing.T) {
	s := NewMemoryStore()
	reg := NewSessionRegistry(s, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.HashSet(ctx, sessionKey("conn-1"),
		map[string]string{fieldMapID: "oops", fieldPlayerID: "42"}, time.Hour))

	_, ok, err := reg.Read(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
