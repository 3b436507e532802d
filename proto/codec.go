package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed 非 JSON 或缺少必需字段；记录日志后丢弃，连接保持
	ErrMalformed = errors.New("proto: malformed message")
	// ErrUnknownType 未识别的消息类型；静默忽略
	ErrUnknownType = errors.New("proto: unknown message type")
)

// MarshalJSON init 快照即使为空也要带上 players 字段
func (m ServerMessage) MarshalJSON() ([]byte, error) {
	type plain ServerMessage
	if m.Type == TypeInit {
		players := m.Players
		if players == nil {
			players = []Player{}
		}
		return json.Marshal(struct {
			Type    string   `json:"type"`
			Players []Player `json:"players"`
		}{Type: m.Type, Players: players})
	}
	return json.Marshal(plain(m))
}

// DecodeClient 解析并校验客户端消息；"update" 规范化为 update_player
func DecodeClient(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch m.Type {
	case "":
		return m, fmt.Errorf("%w: missing type", ErrMalformed)
	case TypeLegacyUpdate:
		m.Type = TypeUpdatePlayer
	case TypeInit, TypeUpdatePlayer:
	default:
		return m, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	if m.Position == nil {
		return m, fmt.Errorf("%w: %s without position", ErrMalformed, m.Type)
	}
	return m, nil
}

func EncodeClient(m ClientMessage) ([]byte, error) {
	return json.Marshal(m)
}

func EncodeServer(m ServerMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeServer 解析服务端消息，按类型检查必需字段
func DecodeServer(b []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch m.Type {
	case TypeInit:
	case TypeInitPlayer, TypeUpdatePlayer:
		if m.Player == nil || m.Player.PlayerID == "" {
			return m, fmt.Errorf("%w: %s without player", ErrMalformed, m.Type)
		}
	case TypeRemovePlayer, TypeWelcome:
		if m.PlayerID == "" {
			return m, fmt.Errorf("%w: %s without playerId", ErrMalformed, m.Type)
		}
	case "":
		return m, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return m, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return m, nil
}
