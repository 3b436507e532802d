package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Direction 移动方向标签，随 Move 事件一起上报
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
	DirUp       Direction = "up"
	DirDown     Direction = "down"
)

var horizontalOrder = [...]Direction{DirForward, DirBackward, DirLeft, DirRight}

// KeySet 当前按住的输入码集合，如 "KeyW"、"Space"
type KeySet map[string]bool

func (k KeySet) Held(code string) bool { return code != "" && k[code] }

// Controls 动作到输入码的绑定
type Controls struct {
	Forward  string
	Backward string
	Left     string
	Right    string
	Jump     string
	Sprint   string
}

// DefaultControls WASD + 空格跳跃 + 左 Shift 冲刺
func DefaultControls() Controls {
	return Controls{
		Forward:  "KeyW",
		Backward: "KeyS",
		Left:     "KeyA",
		Right:    "KeyD",
		Jump:     "Space",
		Sprint:   "ShiftLeft",
	}
}

func (c Controls) code(d Direction) string {
	switch d {
	case DirForward:
		return c.Forward
	case DirBackward:
		return c.Backward
	case DirLeft:
		return c.Left
	case DirRight:
		return c.Right
	}
	return ""
}

// LocomotionConfig 移动与重力参数
type LocomotionConfig struct {
	MoveSpeed        float64
	SprintSpeed      float64
	JumpSpeed        float64
	Gravity          float64 // 负值
	MaxFallSpeed     float64
	MouseSensitivity float64
	GroundProbe      float64 // 向下探测距离
	SkinWidth        float64 // 落地/撞顶后与障碍保留的间隙，需小于 GroundProbe
}

func DefaultLocomotionConfig() LocomotionConfig {
	return LocomotionConfig{
		MoveSpeed:        5,
		SprintSpeed:      10,
		JumpSpeed:        15,
		Gravity:          -30,
		MaxFallSpeed:     50,
		MouseSensitivity: 0.002,
		GroundProbe:      0.2,
		SkinWidth:        0.05,
	}
}

// LocomotionState 本地玩家的运动状态，只由所属 Controller 修改
type LocomotionState struct {
	Grounded         bool
	Jumping          bool
	VerticalVelocity float64
	Sprinting        bool
	Yaw              float64
	Keys             KeySet
}

// Input 单帧输入
type Input struct {
	Keys      KeySet
	PointerDX float64
	PointerDY float64
}

// Move 一次位移尝试的结果；被回退时 Distance 为 0
type Move struct {
	Position  mgl64.Vec3
	Direction Direction
	Distance  float64
}

// Controller 本地玩家的运动状态机：Grounded / Airborne
type Controller struct {
	Body     *Body
	World    *World
	Config   LocomotionConfig
	Controls Controls
	State    LocomotionState
}

// NewController 初始处于空中，第一次探测到地面后落地
func NewController(body *Body, world *World, cfg LocomotionConfig) *Controller {
	return &Controller{
		Body:     body,
		World:    world,
		Config:   cfg,
		Controls: DefaultControls(),
		State:    LocomotionState{Keys: KeySet{}},
	}
}

// Forward 由偏航角得到的前方向量（-Z 为 yaw=0 时的前方）
func Forward(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{-math.Sin(yaw), 0, -math.Cos(yaw)}
}

// Right 由偏航角得到的右方向量
func Right(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(yaw), 0, -math.Sin(yaw)}
}

func (c *Controller) axis(d Direction) mgl64.Vec3 {
	switch d {
	case DirForward:
		return Forward(c.State.Yaw)
	case DirBackward:
		return Forward(c.State.Yaw).Mul(-1)
	case DirLeft:
		return Right(c.State.Yaw).Mul(-1)
	default:
		return Right(c.State.Yaw)
	}
}

// Step 推进一帧，返回本帧产生的所有位移事件（按发生顺序）
func (c *Controller) Step(dt float64, in Input) []Move {
	st := &c.State
	cfg := c.Config
	if in.Keys == nil {
		in.Keys = KeySet{}
	}
	st.Keys = in.Keys
	st.Yaw -= in.PointerDX * cfg.MouseSensitivity

	st.Sprinting = in.Keys.Held(c.Controls.Sprint)
	speed := cfg.MoveSpeed
	if st.Sprinting {
		speed = cfg.SprintSpeed
	}
	dist := speed * dt

	var moves []Move
	for _, d := range horizontalOrder {
		if !in.Keys.Held(c.Controls.code(d)) {
			continue
		}
		moves = append(moves, c.moveHorizontal(d, dist))
	}

	if st.Grounded {
		if in.Keys.Held(c.Controls.Jump) {
			st.Jumping = true
			st.Grounded = false
			st.VerticalVelocity = cfg.JumpSpeed
		} else {
			st.VerticalVelocity = 0
		}
	} else {
		st.VerticalVelocity += cfg.Gravity * dt
		if st.VerticalVelocity < -cfg.MaxFallSpeed {
			st.VerticalVelocity = -cfg.MaxFallSpeed
		}
		moves = append(moves, c.moveVertical(st.VerticalVelocity*dt))
	}

	if st.VerticalVelocity <= 0 {
		probe := c.Body.Bounds().Translate(mgl64.Vec3{0, -cfg.GroundProbe, 0})
		if _, hit := c.World.firstStatic(probe); hit {
			st.Grounded = true
			st.Jumping = false
			st.VerticalVelocity = 0
		} else {
			st.Grounded = false
		}
	}
	return moves
}

// moveHorizontal 每个方向独立试探：撞上静态障碍则精确回退到原位置
func (c *Controller) moveHorizontal(d Direction, dist float64) Move {
	prev := c.Body.Position
	c.Body.Translate(c.axis(d).Mul(dist))
	moved := dist
	if c.World.CollidesStatic(c.Body) {
		c.Body.Position = prev
		moved = 0
	}
	return Move{Position: c.Body.Position, Direction: d, Distance: moved}
}

// moveVertical 竖直位移；穿入障碍时贴到接触面并留出 SkinWidth
func (c *Controller) moveVertical(dy float64) Move {
	st := &c.State
	prevY := c.Body.Position.Y()
	c.Body.Translate(mgl64.Vec3{0, dy, 0})
	if s, hit := c.World.firstStatic(c.Body.Bounds()); hit {
		half := c.Body.Size.Y() / 2
		box := s.Bounds()
		if dy < 0 {
			c.Body.Position[1] = box.Max.Y() + half + c.Config.SkinWidth
			st.Grounded = true
			st.Jumping = false
		} else {
			c.Body.Position[1] = box.Min.Y() - half - c.Config.SkinWidth
		}
		st.VerticalVelocity = 0
	}
	actual := c.Body.Position.Y() - prevY
	dir := DirUp
	if actual < 0 {
		dir = DirDown
	}
	return Move{Position: c.Body.Position, Direction: dir, Distance: math.Abs(actual)}
}
