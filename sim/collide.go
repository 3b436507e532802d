package sim

import "github.com/go-gl/mathgl/mgl64"

// AABB 轴对齐包围盒（闭区间）
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Translate 返回平移后的盒子
func (a AABB) Translate(d mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Intersects 三个轴上闭区间都重叠才算相交，贴合也算。
// 任何 NaN 比较结果为 false，因此 NaN 输入视为不相交。
func (a AABB) Intersects(b AABB) bool {
	for i := 0; i < 3; i++ {
		if !(a.Min[i] <= b.Max[i] && b.Min[i] <= a.Max[i]) {
			return false
		}
	}
	return true
}

// Intersects 两个实体的包围盒是否相交
func Intersects(a, b *Body) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Bounds().Intersects(b.Bounds())
}
