package server

import "sync/atomic"

// Metrics 记录运行期关键指标（用于监控与调试）
type Metrics struct {
	Joins           int64 // 处理成功的 JOIN 数
	Leaves          int64 // 处理成功的 LEAVE 数（含断线补偿）
	Moves           int64 // 处理成功的 MOVE 数
	Rejected        int64 // 被逐条拒绝的消息数（未知类型、解码失败、档案缺失等）
	Reconciled      int64 // 断线补偿触发的离场数
	AuthRefused     int64 // 握手阶段被拒的连接数
	MoveRateLimited int64 // 因限速被丢弃的 MOVE 数
	SendDropped     int64 // 发送队列满被丢弃的出站消息数
}

func (m *Metrics) IncJoins()           { atomic.AddInt64(&m.Joins, 1) }
func (m *Metrics) IncLeaves()          { atomic.AddInt64(&m.Leaves, 1) }
func (m *Metrics) IncMoves()           { atomic.AddInt64(&m.Moves, 1) }
func (m *Metrics) IncRejected()        { atomic.AddInt64(&m.Rejected, 1) }
func (m *Metrics) IncReconciled()      { atomic.AddInt64(&m.Reconciled, 1) }
func (m *Metrics) IncAuthRefused()     { atomic.AddInt64(&m.AuthRefused, 1) }
func (m *Metrics) IncMoveRateLimited() { atomic.AddInt64(&m.MoveRateLimited, 1) }
func (m *Metrics) IncSendDropped()     { atomic.AddInt64(&m.SendDropped, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"joins":             atomic.LoadInt64(&m.Joins),
		"leaves":            atomic.LoadInt64(&m.Leaves),
		"moves":             atomic.LoadInt64(&m.Moves),
		"rejected":          atomic.LoadInt64(&m.Rejected),
		"reconciled":        atomic.LoadInt64(&m.Reconciled),
		"auth_refused":      atomic.LoadInt64(&m.AuthRefused),
		"move_rate_limited": atomic.LoadInt64(&m.MoveRateLimited),
		"send_dropped":      atomic.LoadInt64(&m.SendDropped),
	}
}
