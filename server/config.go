package server

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// IDPolicy 玩家 ID 的来源
type IDPolicy string

const (
	// IDPolicyClient 信任客户端 init 中自带的 playerId（与现有前端兼容）
	IDPolicyClient IDPolicy = "client"
	// IDPolicyServer 连接建立时由服务端签发 uuid，通过 welcome 下发，忽略客户端自带的 ID
	IDPolicyServer IDPolicy = "server"
)

func ParseIDPolicy(s string) (IDPolicy, error) {
	switch IDPolicy(s) {
	case IDPolicyClient, IDPolicyServer:
		return IDPolicy(s), nil
	}
	return "", fmt.Errorf("unknown id policy %q (want client|server)", s)
}

// Config 中继服务的启动参数
type Config struct {
	TickRate          int           // 每秒 Tick 次数
	IDPolicy          IDPolicy      // 玩家 ID 来源
	InitTimeout       time.Duration // 建连后必须在此时间内完成 init
	PongWait          time.Duration // 读超时，收到 pong 或消息后续期
	WriteWait         time.Duration // 单帧写超时
	MaxMessageBytes   int64         // 单帧读上限
	SendQueue         int           // 每连接发送队列长度，满则断开慢连接
	InboxSize         int           // 房间入站队列长度，满则丢弃位置更新
	MaxUpdatesPerTick int           // 每玩家每 Tick 接受的更新数上限（默认值，可热更新）
}

func DefaultConfig() Config {
	return Config{
		TickRate:          20,
		IDPolicy:          IDPolicyClient,
		InitTimeout:       10 * time.Second,
		PongWait:          60 * time.Second,
		WriteWait:         5 * time.Second,
		MaxMessageBytes:   64 << 10,
		SendQueue:         64,
		InboxSize:         256,
		MaxUpdatesPerTick: 8,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.TickRate <= 0 || c.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("tick rate %d out of range (1..1000)", c.TickRate))
	}
	if _, err := ParseIDPolicy(string(c.IDPolicy)); err != nil {
		errs = append(errs, err)
	}
	if c.InitTimeout <= 0 || c.PongWait <= 0 || c.WriteWait <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max message bytes must be positive"))
	}
	if c.SendQueue <= 0 || c.InboxSize <= 0 {
		errs = append(errs, errors.New("queue sizes must be positive"))
	}
	if c.MaxUpdatesPerTick <= 0 {
		errs = append(errs, errors.New("max updates per tick must be positive"))
	}
	return multierr.Combine(errs...)
}

// TickInterval 由 TickRate 换算的 Tick 间隔
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// pingPeriod 略小于 PongWait，保证对端来得及回 pong
func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}
