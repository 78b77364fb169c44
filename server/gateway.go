package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// rateLimits MOVE 限速参数；热更新只影响之后建立的连接
type rateLimits struct {
	mu    sync.Mutex
	rate  float64
	burst int
}

func (l *rateLimits) set(r float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = r
	l.burst = burst
}

func (l *rateLimits) get() (float64, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate, l.burst
}

func (l *rateLimits) newLimiter() *rate.Limiter {
	r, burst := l.get()
	return rate.NewLimiter(rate.Limit(r), burst)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// Gateway 连接网关：握手认证是纯粹的门禁，不碰任何引擎状态
// 通过后为连接生成 ID、绑定地图与身份，再交给读写泵
type Gateway struct {
	verifier   *TokenVerifier
	engine     *Engine
	router     *Router
	reconciler *Reconciler
	spawns     *SpawnTable
	metrics    *Metrics

	// MOVE 限速参数，经 /admin/config 热更新（新连接生效）
	moveLimits rateLimits
}

// NewGateway 按配置串起全部组件
func NewGateway(cfg *Config, store Store, profiles ProfileLookup) *Gateway {
	metrics := &Metrics{}
	spawns := NewSpawnTable(DefaultSpawn())
	router := NewRouter(metrics)
	sessions := NewSessionRegistry(store, cfg.SessionTTL)
	presence := NewPresenceSet(store)
	caches := NewPlayerCaches(store, profiles, cfg.InfoTTL)
	engine := NewEngine(sessions, presence, caches, spawns, router, metrics)
	reconciler := NewReconciler(sessions, engine, metrics)

	g := &Gateway{
		verifier:   NewTokenVerifier(cfg.JWTSecret),
		engine:     engine,
		router:     router,
		reconciler: reconciler,
		spawns:     spawns,
		metrics:    metrics,
	}
	g.moveLimits.set(cfg.MoveRatePerSec, cfg.MoveBurst)
	return g
}

// HandleWS WebSocket 接入：/ws?map=1，Bearer 令牌放头或 ?token=
// 认证不过直接 401，连接不升级、不产生任何会话
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		g.metrics.IncAuthRefused()
		Log.Warnf("handshake refused: missing token, remote=%s", r.RemoteAddr)
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	ident, err := g.verifier.Verify(token)
	if err != nil {
		g.metrics.IncAuthRefused()
		Log.Warnf("handshake refused: %v, remote=%s", err, r.RemoteAddr)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	mapID, err := strconv.ParseInt(r.URL.Query().Get("map"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid map query", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	connID := uuid.NewString()
	client := NewClientConn(ws)

	// 只有认证过的连接才能订阅地图主题
	g.router.Subscribe(mapID, connID, client)
	Log.Infof("connected: connId=%s user=%s mapId=%d", connID, ident.Username, mapID)

	go client.writePump()
	go g.readPump(client, ConnContext{ConnID: connID, MapID: mapID, Identity: ident})
}

// readPump 逐条读入站动作喂给引擎；单条出错只回执那一条
// 读循环退出（客户端掉线）后走断线补偿
func (g *Gateway) readPump(c *ClientConn, cc ConnContext) {
	limiter := g.moveLimits.newLimiter()
	defer func() {
		g.router.Unsubscribe(cc.MapID, cc.ConnID)
		c.Close()
		g.reconciler.OnDisconnect(context.Background(), cc.ConnID)
	}()

	c.ws.SetReadLimit(maxMsgSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		action, err := DecodeAction(payload)
		if err != nil {
			g.metrics.IncRejected()
			Log.Warnf("reject message: connId=%s err=%v", cc.ConnID, err)
			g.notifyError(c, err)
			continue
		}

		// MOVE 高频，按连接限速；超限丢弃但不断开
		if _, isMove := action.(MoveAction); isMove && !limiter.Allow() {
			g.metrics.IncMoveRateLimited()
			continue
		}

		if err := g.engine.Handle(context.Background(), cc, action); err != nil {
			Log.Warnf("handle %s failed: connId=%s err=%v", action.actionTag(), cc.ConnID, err)
			g.notifyError(c, err)
			continue
		}
	}
}

// notifyError 把逐条拒绝的原因回给发送方
func (g *Gateway) notifyError(c *ClientConn, cause error) {
	msg := "internal error"
	switch {
	case errors.Is(cause, ErrUnknownMessageType):
		msg = "unknown message type"
	case errors.Is(cause, ErrBadMessage):
		msg = "malformed message"
	case errors.Is(cause, ErrProfileNotFound):
		msg = "player profile not found"
	}
	payload, err := json.Marshal(ErrorEvent{T: ActionError, Message: msg})
	if err != nil {
		return
	}
	if !c.Send(payload) {
		g.metrics.IncSendDropped()
	}
}
