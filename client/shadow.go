package client

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"quickarena/proto"
	"quickarena/sim"
)

// DefaultPlayerSize 远端玩家影子的包围盒尺寸
var DefaultPlayerSize = mgl64.Vec3{1, 2, 1}

// ShadowSet 远端玩家的本地影子，按中继广播收敛。
// 所有操作幂等，本地玩家自己的 ID 永远不会出现在集合里。
type ShadowSet struct {
	mu       sync.Mutex
	localID  string
	size     mgl64.Vec3
	bodies   map[string]*sim.Body
	renderer Renderer
}

func NewShadowSet(localID string, renderer Renderer) *ShadowSet {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &ShadowSet{
		localID:  localID,
		size:     DefaultPlayerSize,
		bodies:   make(map[string]*sim.Body),
		renderer: renderer,
	}
}

// SetLocalID 由服务端分配 ID 时调用；已存在的同名影子会被移除
func (s *ShadowSet) SetLocalID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localID = id
	s.removeLocked(id)
}

func (s *ShadowSet) LocalID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localID
}

// ApplySnapshot 与全量快照对齐：缺的创建，多的删除，已有的对齐位置
func (s *ShadowSet) ApplySnapshot(players []proto.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p.PlayerID == "" || p.PlayerID == s.localID {
			continue
		}
		seen[p.PlayerID] = struct{}{}
		s.upsertLocked(p)
	}
	for id := range s.bodies {
		if _, ok := seen[id]; !ok {
			s.removeLocked(id)
		}
	}
}

// Upsert 未知 ID 直接创建，丢失的 init_player 因此可以自愈
func (s *ShadowSet) Upsert(p proto.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PlayerID == "" || p.PlayerID == s.localID {
		return
	}
	s.upsertLocked(p)
}

// Remove 返回是否确实删除了影子
func (s *ShadowSet) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

// Apply 按消息类型分派；welcome 更新本地 ID
func (s *ShadowSet) Apply(m proto.ServerMessage) {
	switch m.Type {
	case proto.TypeInit:
		s.ApplySnapshot(m.Players)
	case proto.TypeInitPlayer, proto.TypeUpdatePlayer:
		if m.Player != nil {
			s.Upsert(*m.Player)
		}
	case proto.TypeRemovePlayer:
		s.Remove(m.PlayerID)
	case proto.TypeWelcome:
		s.SetLocalID(m.PlayerID)
	}
}

// Position 影子的当前位置
func (s *ShadowSet) Position(id string) (mgl64.Vec3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return b.Position, true
}

// IDs 排序后的影子 ID
func (s *ShadowSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.bodies))
	for id := range s.bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *ShadowSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func (s *ShadowSet) upsertLocked(p proto.Player) {
	pos := p.Position.Vec()
	if b, ok := s.bodies[p.PlayerID]; ok {
		if b.Position != pos {
			b.Position = pos
			s.renderer.SetBodyPosition(b)
		}
		return
	}
	b := sim.NewBody(p.PlayerID, sim.CategoryPlayer, pos, s.size)
	s.bodies[p.PlayerID] = b
	s.renderer.AddBody(b)
}

func (s *ShadowSet) removeLocked(id string) bool {
	if _, ok := s.bodies[id]; !ok {
		return false
	}
	delete(s.bodies, id)
	s.renderer.RemoveBody(id)
	return true
}
