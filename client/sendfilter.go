package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"quickarena/sim"
)

// SendFilter 决定一帧的位移是否需要上报：
// 没有实际位移，或位置与上次发送的相同，都不发送。
type SendFilter struct {
	last   mgl64.Vec3
	primed bool
}

// Prime 记录已经通过 init 上报的位置
func (f *SendFilter) Prime(pos mgl64.Vec3) {
	f.last = pos
	f.primed = true
}

// Next 返回需要上报的位置
func (f *SendFilter) Next(moves []sim.Move) (mgl64.Vec3, bool) {
	moved := false
	for _, m := range moves {
		if m.Distance > 0 {
			moved = true
			break
		}
	}
	if !moved {
		return mgl64.Vec3{}, false
	}
	// 每个 Move 都记录当时的实体位置，最后一个即本帧终点
	pos := moves[len(moves)-1].Position
	if f.primed && pos == f.last {
		return mgl64.Vec3{}, false
	}
	f.Prime(pos)
	return pos, true
}
