package sim

// World 客户端本地的实体集合，按插入顺序保存。
// 不是并发安全的，由单个帧循环独占使用。
type World struct {
	order  []string
	bodies map[string]*Body
}

func NewWorld() *World {
	return &World{bodies: make(map[string]*Body)}
}

// Add 加入实体，同 ID 已存在时替换
func (w *World) Add(b *Body) {
	if _, ok := w.bodies[b.ID]; !ok {
		w.order = append(w.order, b.ID)
	}
	w.bodies[b.ID] = b
}

// Remove 移除实体，返回是否存在
func (w *World) Remove(id string) bool {
	if _, ok := w.bodies[id]; !ok {
		return false
	}
	delete(w.bodies, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

func (w *World) Get(id string) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

func (w *World) Len() int { return len(w.order) }

// Bodies 按插入顺序返回所有实体（新切片）
func (w *World) Bodies() []*Body {
	out := make([]*Body, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.bodies[id])
	}
	return out
}

// Statics 返回所有静态障碍
func (w *World) Statics() []*Body {
	var out []*Body
	for _, id := range w.order {
		if b := w.bodies[id]; b.Category == CategoryStatic {
			out = append(out, b)
		}
	}
	return out
}

// CollidesStatic 判断 b 是否与任意静态障碍相交
func (w *World) CollidesStatic(b *Body) bool {
	_, hit := w.firstStatic(b.Bounds())
	return hit
}

func (w *World) firstStatic(box AABB) (*Body, bool) {
	for _, id := range w.order {
		s := w.bodies[id]
		if s.Category != CategoryStatic || !s.Caps.Has(Collidable) {
			continue
		}
		if box.Intersects(s.Bounds()) {
			return s, true
		}
	}
	return nil, false
}

// Contacts 返回与 b 相交的实体。
// 玩家之间、静态体之间不产生接触，自身也不计入。
func (w *World) Contacts(b *Body) []*Body {
	var out []*Body
	box := b.Bounds()
	for _, id := range w.order {
		o := w.bodies[id]
		if o == b || o.ID == b.ID {
			continue
		}
		if o.Category == b.Category && (o.Category == CategoryPlayer || o.Category == CategoryStatic) {
			continue
		}
		if !o.Caps.Has(Collidable) {
			continue
		}
		if box.Intersects(o.Bounds()) {
			out = append(out, o)
		}
	}
	return out
}
