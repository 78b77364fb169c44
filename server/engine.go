package server

import (
	"context"
	"fmt"
)

// ConnContext 网关注入的连接上下文（认证身份 + 地图绑定 + 连接标识）
type ConnContext struct {
	ConnID   string
	MapID    int64
	Identity Identity
}

// Engine 状态迁移引擎：逐条消费入站动作，改写共享状态并产出出站事件
// 自身不持有可变状态，整条热路径只依赖 Store 背后的协调
type Engine struct {
	sessions *SessionRegistry
	presence *PresenceSet
	caches   *PlayerCaches
	spawns   *SpawnTable
	router   EventRouter
	metrics  *Metrics
}

func NewEngine(sessions *SessionRegistry, presence *PresenceSet, caches *PlayerCaches,
	spawns *SpawnTable, router EventRouter, metrics *Metrics) *Engine {
	return &Engine{
		sessions: sessions,
		presence: presence,
		caches:   caches,
		spawns:   spawns,
		router:   router,
		metrics:  metrics,
	}
}

// Handle 单入口：错误只影响这一条消息，连接与其他会话不受波及
func (e *Engine) Handle(ctx context.Context, cc ConnContext, action ActionMessage) error {
	switch a := action.(type) {
	case JoinAction:
		return e.handleJoin(ctx, cc, a)
	case LeaveAction:
		return e.handleLeave(ctx, cc, a.PlayerID)
	case MoveAction:
		return e.handleMove(ctx, cc, a)
	default:
		e.metrics.IncRejected()
		return fmt.Errorf("%w: %T", ErrUnknownMessageType, action)
	}
}

// handleJoin JOIN 永远接受（幂等覆盖），重复入场重置到出生点
// 档案查询放在最前面：它是唯一会拒绝的步骤，失败时不留下任何写入
func (e *Engine) handleJoin(ctx context.Context, cc ConnContext, a JoinAction) error {
	if err := e.caches.EnsureInfo(ctx, cc.MapID, a.PlayerID); err != nil {
		e.metrics.IncRejected()
		return fmt.Errorf("join player %d: %w", a.PlayerID, err)
	}

	if err := e.sessions.Create(ctx, cc.ConnID, cc.MapID, a.PlayerID); err != nil {
		return err
	}
	if err := e.presence.Add(ctx, cc.MapID, a.PlayerID); err != nil {
		return err
	}
	sp := e.spawns.Lookup(cc.MapID)
	if err := e.caches.InitializePosition(ctx, a.PlayerID, sp); err != nil {
		return err
	}

	// 入场快照：在线名单 + 全量位置，各一次批量往返，新客户端一次渲染整个世界
	infos, err := e.caches.BatchInfos(ctx, e.presence, cc.MapID)
	if err != nil {
		return err
	}
	positions, err := e.caches.BatchPositions(ctx, e.presence, cc.MapID)
	if err != nil {
		return err
	}

	Log.Infof("player join: user=%s playerId=%d mapId=%d online=%d",
		cc.Identity.Username, a.PlayerID, cc.MapID, len(infos))

	e.router.Unicast(cc.ConnID, InitSnapshot{
		T:                  ActionInit,
		PlayerID:           a.PlayerID,
		PlayerInfoList:     infos,
		PlayerPositionList: positions,
	})
	e.router.Broadcast(cc.MapID, JoinDelta{
		T:        ActionJoin,
		PlayerID: a.PlayerID,
		Name:     a.Name,
		Position: PlayerPosition{PlayerID: a.PlayerID, X: sp.X, Y: sp.Y, D: sp.D},
	})
	e.metrics.IncJoins()
	return nil
}

// handleLeave 显式离场与断线补偿共用；重复调用不改变最终状态
// 约定：即使是冗余的重复 LEAVE 也照常广播 LeaveDelta
func (e *Engine) handleLeave(ctx context.Context, cc ConnContext, playerID int64) error {
	if _, _, err := e.sessions.Remove(ctx, cc.ConnID); err != nil {
		return err
	}
	if err := e.presence.Remove(ctx, cc.MapID, playerID); err != nil {
		return err
	}

	Log.Infof("player leave: playerId=%d mapId=%d", playerID, cc.MapID)

	e.router.Broadcast(cc.MapID, LeaveDelta{T: ActionLeave, PlayerID: playerID})
	e.metrics.IncLeaves()
	return nil
}

// handleMove 整体覆盖位置，后写者胜；不做跨玩家或跨消息的排序
func (e *Engine) handleMove(ctx context.Context, cc ConnContext, a MoveAction) error {
	if err := e.caches.UpdatePosition(ctx, a.PlayerID, a.X, a.Y, a.D); err != nil {
		return err
	}
	e.router.Broadcast(cc.MapID, MoveDelta{
		T:        ActionMove,
		PlayerID: a.PlayerID,
		X:        a.X,
		Y:        a.Y,
		D:        a.D,
	})
	e.metrics.IncMoves()
	return nil
}
