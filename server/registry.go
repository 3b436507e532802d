package server

import (
	"sort"
	"time"

	"quickarena/proto"
)

// Registry 连接注册表：PlayerID -> PlayerRecord。
// 只由房间的 Tick 协程修改，本身不加锁。
type Registry struct {
	records map[PlayerID]*PlayerRecord
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[PlayerID]*PlayerRecord)}
}

// Upsert 插入或覆盖记录，返回是否新建
func (r *Registry) Upsert(id PlayerID, pos proto.Vec3, now time.Time) bool {
	if rec, ok := r.records[id]; ok {
		rec.Position = pos
		rec.UpdatedAt = now
		return false
	}
	r.records[id] = &PlayerRecord{ID: id, Position: pos, UpdatedAt: now}
	return true
}

// Update 覆盖已有记录的位置；记录不存在时返回 false。
// 位置未变化时记录保持原样（UpdatedAt 不刷新）。
func (r *Registry) Update(id PlayerID, pos proto.Vec3, now time.Time) bool {
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	if rec.Position == pos {
		return true
	}
	rec.Position = pos
	rec.UpdatedAt = now
	return true
}

func (r *Registry) Remove(id PlayerID) bool {
	if _, ok := r.records[id]; !ok {
		return false
	}
	delete(r.records, id)
	return true
}

func (r *Registry) Get(id PlayerID) (PlayerRecord, bool) {
	rec, ok := r.records[id]
	if !ok {
		return PlayerRecord{}, false
	}
	return *rec, true
}

func (r *Registry) Len() int { return len(r.records) }

// Snapshot 按 ID 排序的副本
func (r *Registry) Snapshot() []PlayerRecord {
	out := make([]PlayerRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Wire 快照的广播格式
func (r *Registry) Wire() []proto.Player {
	snap := r.Snapshot()
	out := make([]proto.Player, 0, len(snap))
	for _, rec := range snap {
		out = append(out, rec.Wire())
	}
	return out
}
