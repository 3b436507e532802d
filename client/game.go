package client

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"quickarena/proto"
	"quickarena/sim"
)

// GameConfig 本地游戏参数
type GameConfig struct {
	PlayerID        string
	Spawn           mgl64.Vec3
	PlayerSize      mgl64.Vec3
	Locomotion      sim.LocomotionConfig
	Projectiles     sim.ProjectileConfig
	FireKey         string
	ProjectileSpeed float64
	Logger          *zap.SugaredLogger
}

func DefaultGameConfig(playerID string) GameConfig {
	return GameConfig{
		PlayerID:        playerID,
		Spawn:           mgl64.Vec3{0, 2, 0},
		PlayerSize:      DefaultPlayerSize,
		Locomotion:      sim.DefaultLocomotionConfig(),
		Projectiles:     sim.DefaultProjectileConfig(),
		FireKey:         "Mouse0",
		ProjectileSpeed: 40,
	}
}

// FrameStats 一帧的处理结果
type FrameStats struct {
	Received int
	Moves    []sim.Move
	Fired    bool
	Retired  int
	Sent     bool
}

// Game 客户端的帧循环：World、本地玩家、弹体和远端影子都归它所有。
// Frame 必须在同一个协程中调用；传输层的读协程只往收件箱里放帧。
type Game struct {
	cfg       GameConfig
	log       *zap.SugaredLogger
	id        string
	renderer  Renderer
	transport Transport
	filter    SendFilter

	World       *sim.World
	Self        *sim.Body
	Controller  *sim.Controller
	Projectiles *sim.Projectiles
	Shadows     *ShadowSet

	fireHeld     bool
	started      bool
	disconnected bool
}

// NewGame transport 为 nil 时离线运行
func NewGame(cfg GameConfig, statics []*sim.Body, renderer Renderer, transport Transport) *Game {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	world := sim.NewWorld()
	for _, s := range statics {
		world.Add(s)
	}
	self := sim.NewBody(cfg.PlayerID, sim.CategoryPlayer, cfg.Spawn, cfg.PlayerSize)
	world.Add(self)
	return &Game{
		cfg:         cfg,
		log:         log,
		id:          cfg.PlayerID,
		renderer:    renderer,
		transport:   transport,
		World:       world,
		Self:        self,
		Controller:  sim.NewController(self, world, cfg.Locomotion),
		Projectiles: sim.NewProjectiles(world, cfg.Projectiles),
		Shadows:     NewShadowSet(cfg.PlayerID, renderer),
	}
}

// PlayerID 本地玩家 ID；服务端分配模式下在收到 welcome 后才确定
func (g *Game) PlayerID() string { return g.id }

// Disconnected 收件箱已关闭
func (g *Game) Disconnected() bool { return g.disconnected }

// Start 把场景交给渲染器并发送 init
func (g *Game) Start() error {
	if g.started {
		return nil
	}
	g.started = true
	for _, b := range g.World.Bodies() {
		g.renderer.AddBody(b)
	}
	g.filter.Prime(g.Self.Position)
	return g.send(proto.TypeInit, g.Self.Position)
}

// Frame 推进一帧：收件箱 -> 影子，本地运动，弹体，上报位移
func (g *Game) Frame(dt float64, input InputSource) FrameStats {
	var stats FrameStats
	stats.Received = g.drainInbox()

	in := sim.Input{Keys: sim.KeySet{}}
	if input != nil {
		if keys := input.Held(); keys != nil {
			in.Keys = keys
		}
		in.PointerDX, in.PointerDY = input.PointerDelta()
	}

	stats.Moves = g.Controller.Step(dt, in)
	if len(stats.Moves) > 0 {
		g.renderer.SetBodyPosition(g.Self)
	}

	// 只在按下的那一帧开火
	fire := in.Keys.Held(g.cfg.FireKey)
	if fire && !g.fireHeld {
		g.fire()
		stats.Fired = true
	}
	g.fireHeld = fire

	retired := g.Projectiles.Tick(dt)
	for _, p := range retired {
		g.renderer.RemoveBody(p.ID)
	}
	stats.Retired = len(retired)
	for _, p := range g.Projectiles.Live() {
		g.renderer.SetBodyPosition(p.Body)
	}

	if pos, ok := g.filter.Next(stats.Moves); ok {
		if err := g.send(proto.TypeUpdatePlayer, pos); err != nil {
			g.log.Debugf("update not sent: %v", err)
		} else {
			stats.Sent = g.transport != nil
		}
	}
	return stats
}

func (g *Game) fire() {
	dir := sim.Forward(g.Controller.State.Yaw)
	p := g.Projectiles.Spawn(g.Self.Position, dir.Mul(g.cfg.ProjectileSpeed))
	g.renderer.AddBody(p.Body)
}

func (g *Game) drainInbox() int {
	if g.transport == nil || g.disconnected {
		return 0
	}
	msgs := g.transport.Messages()
	n := 0
	for {
		select {
		case frame, ok := <-msgs:
			if !ok {
				g.disconnected = true
				g.log.Warn("relay connection lost")
				return n
			}
			n++
			g.handle(frame)
		default:
			return n
		}
	}
}

func (g *Game) handle(frame []byte) {
	m, err := proto.DecodeServer(frame)
	switch {
	case errors.Is(err, proto.ErrUnknownType):
		g.log.Debugf("ignored message: %v", err)
		return
	case err != nil:
		g.log.Warnf("dropped message: %v", err)
		return
	}
	if m.Type == proto.TypeWelcome {
		g.id = m.PlayerID
		g.log.Infof("relay assigned player id %s", m.PlayerID)
	}
	g.Shadows.Apply(m)
}

func (g *Game) send(kind string, pos mgl64.Vec3) error {
	if g.transport == nil {
		return nil
	}
	wire := proto.FromVec(pos)
	frame, err := proto.EncodeClient(proto.ClientMessage{Type: kind, PlayerID: g.id, Position: &wire})
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return g.transport.Send(frame)
}
