package server

import "context"

// Reconciler 断线补偿：传输层只给连接 ID，玩家与地图从会话表找回
// 客户端异常掉线不会发 LEAVE，这里替它走一遍正常的离场路径
type Reconciler struct {
	sessions *SessionRegistry
	engine   *Engine
	metrics  *Metrics
}

func NewReconciler(sessions *SessionRegistry, engine *Engine, metrics *Metrics) *Reconciler {
	return &Reconciler{sessions: sessions, engine: engine, metrics: metrics}
}

// OnDisconnect 会话存在才补偿一次；已显式离场或从未完成 JOIN 则什么都不做
// 显式 LEAVE 已经删掉会话，所以同一连接不会补偿出第二条 LeaveDelta
func (r *Reconciler) OnDisconnect(ctx context.Context, connID string) {
	sess, ok, err := r.sessions.Read(ctx, connID)
	if err != nil {
		Log.Errorf("reconcile read session: connId=%s err=%v", connID, err)
		return
	}
	if !ok {
		return
	}

	cc := ConnContext{ConnID: connID, MapID: sess.MapID}
	if err := r.engine.Handle(ctx, cc, LeaveAction{PlayerID: sess.PlayerID}); err != nil {
		Log.Errorf("reconcile leave: connId=%s playerId=%d err=%v", connID, sess.PlayerID, err)
		return
	}
	r.metrics.IncReconciled()
	Log.Infof("reconciled disconnect: connId=%s playerId=%d mapId=%d", connID, sess.PlayerID, sess.MapID)
}
