package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"quickarena/sim"
)

// DefaultArena 地板加四面围墙
func DefaultArena() []*sim.Body {
	return []*sim.Body{
		sim.NewBody("floor", sim.CategoryStatic, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{12, 1, 12}),
		sim.NewBody("wall-west", sim.CategoryStatic, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 1, 10}),
		sim.NewBody("wall-east", sim.CategoryStatic, mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 1, 10}),
		sim.NewBody("wall-north", sim.CategoryStatic, mgl64.Vec3{0, 0, -5}, mgl64.Vec3{10, 1, 1}),
		sim.NewBody("wall-south", sim.CategoryStatic, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{10, 1, 1}),
	}
}
