package client

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"quickarena/proto"
)

func player(id string, x, y, z float64) proto.Player {
	return proto.Player{PlayerID: id, Position: proto.Vec3{X: x, Y: y, Z: z}}
}

func TestShadowSnapshotSymmetricDifference(t *testing.T) {
	rec := newRecorder()
	s := NewShadowSet("me", rec)

	s.ApplySnapshot([]proto.Player{player("a", 1, 0, 0), player("b", 2, 0, 0)})
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if pos, _ := s.Position("b"); pos != (mgl64.Vec3{2, 0, 0}) {
		t.Fatalf("b at %v", pos)
	}

	s.ApplySnapshot([]proto.Player{player("a", 1, 0, 0)})
	if ids := s.IDs(); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("ids = %v, want [a]", ids)
	}
	if pos, _ := s.Position("a"); pos != (mgl64.Vec3{1, 0, 0}) {
		t.Fatalf("a moved to %v", pos)
	}
	if len(rec.removed) != 1 || rec.removed[0] != "b" {
		t.Fatalf("removed = %v", rec.removed)
	}
	if rec.moved["a"] != 0 {
		t.Fatalf("unchanged shadow repositioned %d times", rec.moved["a"])
	}
}

func TestShadowExcludesLocalPlayer(t *testing.T) {
	rec := newRecorder()
	s := NewShadowSet("me", rec)
	s.ApplySnapshot([]proto.Player{player("me", 0, 0, 0), player("a", 1, 0, 0)})
	s.Upsert(player("me", 5, 5, 5))
	if ids := s.IDs(); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("ids = %v", ids)
	}

	// 服务端分配的 ID 到达后，同名影子被移除
	s.Apply(proto.Welcome("a"))
	if s.Len() != 0 || s.LocalID() != "a" {
		t.Fatalf("after welcome: len=%d local=%q", s.Len(), s.LocalID())
	}
}

func TestShadowUpsertAndRemoveAreIdempotent(t *testing.T) {
	rec := newRecorder()
	s := NewShadowSet("me", rec)

	// update_player 先于 init_player 到达时直接创建
	s.Apply(proto.UpdatePlayer(player("x", 1, 2, 3)))
	s.Apply(proto.InitPlayer(player("x", 1, 2, 3)))
	if s.Len() != 1 || len(rec.added) != 1 {
		t.Fatalf("len=%d added=%v", s.Len(), rec.added)
	}
	s.Apply(proto.UpdatePlayer(player("x", 4, 2, 3)))
	if pos, _ := s.Position("x"); pos != (mgl64.Vec3{4, 2, 3}) {
		t.Fatalf("x at %v", pos)
	}

	s.Apply(proto.RemovePlayer("x"))
	if s.Remove("x") {
		t.Fatal("second remove reported a deletion")
	}
	s.Apply(proto.RemovePlayer("never-seen"))
	if s.Len() != 0 || len(rec.removed) != 1 {
		t.Fatalf("len=%d removed=%v", s.Len(), rec.removed)
	}
}
