package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Projectile 短生命周期的弹道实体，匀速直线运动
type Projectile struct {
	ID            string
	Body          *Body
	Velocity      mgl64.Vec3
	SpawnedAtTick int64
}

// ProjectileConfig 弹体参数
type ProjectileConfig struct {
	Size             mgl64.Vec3
	MaxLive          int   // 超出则丢弃最旧的
	MaxLifetimeTicks int64 // <=0 表示不按寿命回收
}

func DefaultProjectileConfig() ProjectileConfig {
	return ProjectileConfig{
		Size:             mgl64.Vec3{0.2, 0.2, 0.2},
		MaxLive:          256,
		MaxLifetimeTicks: 600,
	}
}

// Projectiles 管理存活的弹体，弹体同时登记在 World 中
type Projectiles struct {
	world *World
	cfg   ProjectileConfig
	live  []*Projectile // 按生成顺序
	// 因容量被挤掉、尚未通过 Tick 上报的弹体
	evicted []*Projectile
	tick    int64
	newID   func() string
}

func NewProjectiles(world *World, cfg ProjectileConfig) *Projectiles {
	if cfg.MaxLive <= 0 {
		cfg.MaxLive = DefaultProjectileConfig().MaxLive
	}
	return &Projectiles{
		world: world,
		cfg:   cfg,
		newID: func() string { return uuid.NewString() },
	}
}

// Spawn 在 origin 处生成弹体，超出上限时先回收最旧的一个
func (ps *Projectiles) Spawn(origin, velocity mgl64.Vec3) *Projectile {
	if len(ps.live) >= ps.cfg.MaxLive {
		ps.retire(0)
	}
	id := ps.newID()
	p := &Projectile{
		ID:            id,
		Body:          NewBody(id, CategoryProjectile, origin, ps.cfg.Size),
		Velocity:      velocity,
		SpawnedAtTick: ps.tick,
	}
	ps.live = append(ps.live, p)
	ps.world.Add(p.Body)
	return p
}

// Tick 推进所有弹体；本帧路径上碰到静态障碍或超出寿命的在本帧回收并返回。
// 返回值也包含上一帧以来因容量上限被挤掉的弹体。
func (ps *Projectiles) Tick(dt float64) []*Projectile {
	ps.tick++
	retired := ps.evicted
	ps.evicted = nil
	kept := ps.live[:0]
	for _, p := range ps.live {
		hit := ps.sweep(p, dt)
		expired := ps.cfg.MaxLifetimeTicks > 0 && ps.tick-p.SpawnedAtTick >= ps.cfg.MaxLifetimeTicks
		if expired || hit {
			ps.world.Remove(p.ID)
			retired = append(retired, p)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(ps.live); i++ {
		ps.live[i] = nil
	}
	ps.live = kept
	return retired
}

// maxSubsteps 单帧扫掠的分段上限
const maxSubsteps = 1024

// sweep 把一帧的位移切成不超过弹体最短边的小段逐段检测，
// 相邻两段的包围盒首尾相接，路径上的任何静态障碍都不会被跳过。
// 命中时弹体停在第一次相交的位置。
func (ps *Projectiles) sweep(p *Projectile, dt float64) bool {
	start := p.Body.Position
	delta := p.Velocity.Mul(dt)
	n := 1
	if step := minExtent(p.Body.Size); step > 0 {
		if k := delta.Len() / step; k > 1 {
			n = maxSubsteps
			if k < maxSubsteps {
				n = int(math.Ceil(k))
			}
		}
	}
	for i := 1; i <= n; i++ {
		p.Body.Position = start.Add(delta.Mul(float64(i) / float64(n)))
		if ps.world.CollidesStatic(p.Body) {
			return true
		}
	}
	return false
}

func minExtent(size mgl64.Vec3) float64 {
	return math.Min(size.X(), math.Min(size.Y(), size.Z()))
}

func (ps *Projectiles) retire(i int) {
	p := ps.live[i]
	ps.world.Remove(p.ID)
	ps.evicted = append(ps.evicted, p)
	ps.live = append(ps.live[:i], ps.live[i+1:]...)
}

// Live 当前存活弹体（新切片）
func (ps *Projectiles) Live() []*Projectile {
	return append([]*Projectile(nil), ps.live...)
}

func (ps *Projectiles) Len() int { return len(ps.live) }

// CurrentTick 已推进的帧数
func (ps *Projectiles) CurrentTick() int64 { return ps.tick }
