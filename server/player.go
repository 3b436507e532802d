package server

import (
	"time"

	"quickarena/proto"
)

// PlayerID 表示玩家唯一标识，绑定到连接后不可更改
type PlayerID string

// PlayerRecord 服务端保存的玩家位置记录（不做物理模拟）
type PlayerRecord struct {
	ID        PlayerID
	Position  proto.Vec3
	UpdatedAt time.Time
}

// Wire 转为广播格式
func (p PlayerRecord) Wire() proto.Player {
	return proto.Player{PlayerID: string(p.ID), Position: p.Position}
}
