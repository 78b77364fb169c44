package server

import (
	"encoding/json"
	"sync"
)

// Sender 单个连接的出站发送端；Send 入队失败（队列满）返回 false
type Sender interface {
	Send(payload []byte) bool
}

// EventRouter 引擎的出站通道：单播入场快照、按地图广播增量
type EventRouter interface {
	Unicast(connID string, ev StateEvent)
	Broadcast(mapID int64, ev StateEvent)
}

// Router 维护连接与地图订阅关系；只有通过网关认证的连接才会被登记
type Router struct {
	mu      sync.RWMutex
	conns   map[string]Sender
	topics  map[int64]map[string]Sender
	metrics *Metrics
}

func NewRouter(metrics *Metrics) *Router {
	return &Router{
		conns:   make(map[string]Sender),
		topics:  make(map[int64]map[string]Sender),
		metrics: metrics,
	}
}

// Subscribe 将连接登记到地图主题并开通单播通道
func (r *Router) Subscribe(mapID int64, connID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = s
	topic, ok := r.topics[mapID]
	if !ok {
		topic = make(map[string]Sender)
		r.topics[mapID] = topic
	}
	topic[connID] = s
}

// Unsubscribe 连接关闭后摘除订阅；重复调用无害
func (r *Router) Unsubscribe(mapID int64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	if topic, ok := r.topics[mapID]; ok {
		delete(topic, connID)
		if len(topic) == 0 {
			delete(r.topics, mapID)
		}
	}
}

// Unicast 只发给指定连接（入场快照走这里）
func (r *Router) Unicast(connID string, ev StateEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		Log.Errorf("marshal event: %v", err)
		return
	}
	r.mu.RLock()
	s, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if !s.Send(payload) {
		r.metrics.IncSendDropped()
	}
}

// Broadcast 发给地图主题的全部订阅者；单个连接队列满只丢它自己的那份
func (r *Router) Broadcast(mapID int64, ev StateEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		Log.Errorf("marshal event: %v", err)
		return
	}
	r.mu.RLock()
	topic := r.topics[mapID]
	senders := make([]Sender, 0, len(topic))
	for _, s := range topic {
		senders = append(senders, s)
	}
	r.mu.RUnlock()

	for _, s := range senders {
		if !s.Send(payload) {
			r.metrics.IncSendDropped()
		}
	}
}
