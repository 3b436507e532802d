package sim

import "github.com/go-gl/mathgl/mgl64"

// Category 实体类别标签：行为差异由类别分派，而不是继承
type Category int

const (
	CategoryNeutral Category = iota
	CategoryPlayer
	CategoryStatic
	CategoryProjectile
)

func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryStatic:
		return "static"
	case CategoryProjectile:
		return "projectile"
	default:
		return "neutral"
	}
}

// Caps 实体能力集合
type Caps uint8

const (
	Movable Caps = 1 << iota
	Collidable
	Networked
)

func (c Caps) Has(flag Caps) bool { return c&flag == flag }

// Body 场景中带包围盒的实体
// Position 为盒子中心，Size 为完整的长宽高
type Body struct {
	ID       string
	Position mgl64.Vec3
	Size     mgl64.Vec3
	Category Category
	Caps     Caps
}

// NewBody 按类别给出默认能力
func NewBody(id string, cat Category, pos, size mgl64.Vec3) *Body {
	b := &Body{ID: id, Position: pos, Size: size, Category: cat}
	switch cat {
	case CategoryPlayer:
		b.Caps = Movable | Collidable | Networked
	case CategoryStatic:
		b.Caps = Collidable
	case CategoryProjectile:
		b.Caps = Movable | Collidable
	}
	return b
}

// Bounds 当前位置下的轴对齐包围盒
func (b *Body) Bounds() AABB {
	half := b.Size.Mul(0.5)
	return AABB{Min: b.Position.Sub(half), Max: b.Position.Add(half)}
}

// Translate 平移实体
func (b *Body) Translate(d mgl64.Vec3) { b.Position = b.Position.Add(d) }

// Clone 浅拷贝，渲染或快照使用
func (b *Body) Clone() *Body {
	c := *b
	return &c
}
