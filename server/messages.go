package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 消息标签（入站与出站共用同一套判别字段 "t"）
const (
	ActionInit  = "P_Init"
	ActionJoin  = "P_JOIN"
	ActionLeave = "P_LEAVE"
	ActionMove  = "P_MOVE"
	ActionError = "P_ERR"
)

// ErrUnknownMessageType 未识别的消息标签：只拒绝该条消息，不影响连接
var ErrUnknownMessageType = errors.New("unknown message type")

// ErrBadMessage 消息格式不合法（JSON 解不开、朝向越界等），同样只拒绝该条
var ErrBadMessage = errors.New("bad message")

// Direction 朝向，1234 对应 上下左右
type Direction int16

const (
	DirUp Direction = iota + 1
	DirDown
	DirLeft
	DirRight
)

func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirRight
}

// ActionMessage 入站动作的封闭变体，按 "t" 解码得到具体类型
type ActionMessage interface {
	actionTag() string
}

type JoinAction struct {
	PlayerID int64
	Name     string
}

type LeaveAction struct {
	PlayerID int64
}

type MoveAction struct {
	PlayerID int64
	X        float64
	Y        float64
	D        Direction
}

func (JoinAction) actionTag() string  { return ActionJoin }
func (LeaveAction) actionTag() string { return ActionLeave }
func (MoveAction) actionTag() string  { return ActionMove }

// DecodeAction 按判别字段把入站 JSON 解成具体动作
// 例：{"t":"P_MOVE","p":42,"x":10.5,"y":20.25,"d":3}
func DecodeAction(payload []byte) (ActionMessage, error) {
	var env struct {
		T string    `json:"t"`
		P int64     `json:"p"`
		N string    `json:"n"`
		X float64   `json:"x"`
		Y float64   `json:"y"`
		D Direction `json:"d"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	switch env.T {
	case ActionJoin:
		return JoinAction{PlayerID: env.P, Name: env.N}, nil
	case ActionLeave:
		return LeaveAction{PlayerID: env.P}, nil
	case ActionMove:
		if !env.D.Valid() {
			return nil, fmt.Errorf("%w: bad direction %d", ErrBadMessage, env.D)
		}
		return MoveAction{PlayerID: env.P, X: env.X, Y: env.Y, D: env.D}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.T)
	}
}

// PlayerInfo 快照中的玩家档案条目
type PlayerInfo struct {
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
}

// PlayerPosition 快照与广播中的位置条目
type PlayerPosition struct {
	PlayerID int64     `json:"playerId"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	D        Direction `json:"d"`
}

// StateEvent 出站事件的封闭变体
type StateEvent interface {
	stateTag() string
}

// InitSnapshot 入场快照，仅发给新加入的连接本身
type InitSnapshot struct {
	T                  string           `json:"t"`
	PlayerID           int64            `json:"p"`
	PlayerInfoList     []PlayerInfo     `json:"playerInfoList"`
	PlayerPositionList []PlayerPosition `json:"playerPositionList"`
}

// JoinDelta 新玩家入场广播，带出生点坐标，老玩家无需再查询
type JoinDelta struct {
	T        string         `json:"t"`
	PlayerID int64          `json:"p"`
	Name     string         `json:"n"`
	Position PlayerPosition `json:"po"`
}

type LeaveDelta struct {
	T        string `json:"t"`
	PlayerID int64  `json:"p"`
}

type MoveDelta struct {
	T        string    `json:"t"`
	PlayerID int64     `json:"p"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	D        Direction `json:"d"`
}

// ErrorEvent 单条消息被拒绝时回给发送方的提示
type ErrorEvent struct {
	T       string `json:"t"`
	Message string `json:"msg"`
}

func (InitSnapshot) stateTag() string { return ActionInit }
func (JoinDelta) stateTag() string    { return ActionJoin }
func (LeaveDelta) stateTag() string   { return ActionLeave }
func (MoveDelta) stateTag() string    { return ActionMove }
func (ErrorEvent) stateTag() string   { return ActionError }
