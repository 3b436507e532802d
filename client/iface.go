package client

import "quickarena/sim"

// Renderer 场景侧的协作者，只接收实体的增删与位置变化
type Renderer interface {
	AddBody(b *sim.Body)
	RemoveBody(id string)
	SetBodyPosition(b *sim.Body)
}

// InputSource 每帧读取一次的输入源
type InputSource interface {
	Held() sim.KeySet
	PointerDelta() (dx, dy float64)
}

// Transport 到中继的双向消息通道
// Send 不阻塞；Messages 在连接结束后关闭
type Transport interface {
	Send(frame []byte) error
	Messages() <-chan []byte
	Close() error
}

type nopRenderer struct{}

func (nopRenderer) AddBody(*sim.Body)         {}
func (nopRenderer) RemoveBody(string)         {}
func (nopRenderer) SetBodyPosition(*sim.Body) {}

// StaticInput 固定输入
type StaticInput struct {
	Keys   sim.KeySet
	DX, DY float64
}

func (s StaticInput) Held() sim.KeySet { return s.Keys }

func (s StaticInput) PointerDelta() (float64, float64) { return s.DX, s.DY }
