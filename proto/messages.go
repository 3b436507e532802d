// Package proto 定义客户端与中继服务之间的 JSON 文本帧协议。
//
// 只实现增量协议：init / init_player / update_player / remove_player。
// 旧协议的 "update" 作为 update_player 的别名接受；整包 "state" 广播不再发送。
package proto

import "github.com/go-gl/mathgl/mgl64"

// 消息类型
const (
	TypeInit         = "init"
	TypeInitPlayer   = "init_player"
	TypeUpdatePlayer = "update_player"
	TypeRemovePlayer = "remove_player"
	TypeWelcome      = "welcome"

	// TypeLegacyUpdate 早期客户端使用的更新类型
	TypeLegacyUpdate = "update"
)

// Vec3 线上坐标格式 {"x":..,"y":..,"z":..}
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func FromVec(v mgl64.Vec3) Vec3 { return Vec3{X: v[0], Y: v[1], Z: v[2]} }

func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// Player 广播中的单个玩家
type Player struct {
	PlayerID string `json:"playerId"`
	Position Vec3   `json:"position"`
}

// ClientMessage 客户端 -> 服务端
// {"type":"init","playerId":"..","position":{..}}
// {"type":"update_player","playerId":"..","position":{..}}
type ClientMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId,omitempty"`
	Position *Vec3  `json:"position,omitempty"`
}

// ServerMessage 服务端 -> 客户端，按 Type 使用不同字段
type ServerMessage struct {
	Type     string   `json:"type"`
	Players  []Player `json:"players,omitempty"`
	Player   *Player  `json:"player,omitempty"`
	PlayerID string   `json:"playerId,omitempty"`
}

func InitSnapshot(players []Player) ServerMessage {
	if players == nil {
		players = []Player{}
	}
	return ServerMessage{Type: TypeInit, Players: players}
}

func InitPlayer(p Player) ServerMessage {
	return ServerMessage{Type: TypeInitPlayer, Player: &p}
}

func UpdatePlayer(p Player) ServerMessage {
	return ServerMessage{Type: TypeUpdatePlayer, Player: &p}
}

func RemovePlayer(id string) ServerMessage {
	return ServerMessage{Type: TypeRemovePlayer, PlayerID: id}
}

func Welcome(id string) ServerMessage {
	return ServerMessage{Type: TypeWelcome, PlayerID: id}
}
