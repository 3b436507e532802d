package server

import "quickarena/proto"

type eventKind int

const (
	evJoin eventKind = iota
	evMessage
	evLeave
)

// roomEvent 房间入站事件：建连、消息、断开共用一个队列，
// 保证同一连接的事件按到达顺序在 Tick 中处理
type roomEvent struct {
	kind    eventKind
	session *Session
	msg     proto.ClientMessage
}
