package gait

import (
	"container/heap"
	"math"

	"github.com/Faultbox/imprint/internal/deform"
	m "github.com/Faultbox/imprint/pkg/math"
)

// Terrain is the heightfield a route is planned over.
type Terrain interface {
	Width() int
	Depth() int
	CellLength() float64
	Get(x, z int) float64
	Grid2World(x, z int) m.Vec3
	World2Grid(p m.Vec3) (x, z int)
}

type routeNode struct {
	x, z   int
	g, f   float64
	parent *routeNode
	index  int
}

type routeQueue []*routeNode

func (q routeQueue) Len() int           { return len(q) }
func (q routeQueue) Less(i, j int) bool { return q[i].f < q[j].f }
func (q routeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *routeQueue) Push(x any) {
	n := x.(*routeNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *routeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*q = old[:len(old)-1]
	return n
}

// Router plans walking routes across a terrain, avoiding cells whose slope
// to any neighbour exceeds MaxSlope degrees. Routes do not wrap.
type Router struct {
	terrain  Terrain
	MaxSlope float64
}

// NewRouter creates a router for terrain.
func NewRouter(terrain Terrain, maxSlope float64) *Router {
	return &Router{terrain: terrain, MaxSlope: maxSlope}
}

var routeDirs = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Walkable reports whether a cell is inside the terrain and no steeper
// than MaxSlope toward any in-bounds neighbour.
func (r *Router) Walkable(x, z int) bool {
	if !r.inBounds(x, z) {
		return false
	}
	h := r.terrain.Get(x, z)
	run := r.terrain.CellLength()
	for _, d := range routeDirs {
		nx, nz := x+d[0], z+d[1]
		if !r.inBounds(nx, nz) {
			continue
		}
		dist := run
		if d[0] != 0 && d[1] != 0 {
			dist *= math.Sqrt2
		}
		if deform.SlopeAngle(math.Abs(h-r.terrain.Get(nx, nz)), dist) > r.MaxSlope {
			return false
		}
	}
	return true
}

// FindPath returns the cells from start to goal inclusive, or nil when the
// goal cannot be reached.
func (r *Router) FindPath(sx, sz, gx, gz int) [][2]int {
	if !r.Walkable(sx, sz) || !r.Walkable(gx, gz) {
		return nil
	}

	w := r.terrain.Width()
	key := func(x, z int) int { return z*w + x }

	open := &routeQueue{}
	closed := make(map[int]bool)
	nodes := make(map[int]*routeNode)

	start := &routeNode{x: sx, z: sz, f: octile(sx, sz, gx, gz)}
	heap.Push(open, start)
	nodes[key(sx, sz)] = start

	for open.Len() > 0 {
		cur := heap.Pop(open).(*routeNode)
		if cur.x == gx && cur.z == gz {
			return tracePath(cur)
		}
		closed[key(cur.x, cur.z)] = true

		for _, d := range routeDirs {
			nx, nz := cur.x+d[0], cur.z+d[1]
			if !r.Walkable(nx, nz) || closed[key(nx, nz)] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				// No corner cutting.
				if !r.Walkable(cur.x+d[0], cur.z) || !r.Walkable(cur.x, cur.z+d[1]) {
					continue
				}
				cost = math.Sqrt2
			}

			g := cur.g + cost
			n, seen := nodes[key(nx, nz)]
			switch {
			case !seen:
				n = &routeNode{x: nx, z: nz, g: g, f: g + octile(nx, nz, gx, gz), parent: cur}
				nodes[key(nx, nz)] = n
				heap.Push(open, n)
			case g < n.g:
				n.f += g - n.g
				n.g = g
				n.parent = cur
				heap.Fix(open, n.index)
			}
		}
	}
	return nil
}

// Route plans between two world XZ points and returns world waypoints at
// cell centres, excluding the start cell.
func (r *Router) Route(from, to m.Vec2) ([][2]float64, bool) {
	sx, sz := r.terrain.World2Grid(m.Vec3{X: from.X, Z: from.Y})
	gx, gz := r.terrain.World2Grid(m.Vec3{X: to.X, Z: to.Y})
	cells := r.FindPath(sx, sz, gx, gz)
	if cells == nil {
		return nil, false
	}
	waypoints := make([][2]float64, 0, len(cells)-1)
	for _, c := range cells[1:] {
		p := r.terrain.Grid2World(c[0], c[1])
		waypoints = append(waypoints, [2]float64{p.X, p.Z})
	}
	return waypoints, true
}

func (r *Router) inBounds(x, z int) bool {
	return x >= 0 && x < r.terrain.Width() && z >= 0 && z < r.terrain.Depth()
}

func octile(x1, z1, x2, z2 int) float64 {
	dx := math.Abs(float64(x2 - x1))
	dz := math.Abs(float64(z2 - z1))
	return math.Max(dx, dz) + (math.Sqrt2-1)*math.Min(dx, dz)
}

func tracePath(n *routeNode) [][2]int {
	var path [][2]int
	for ; n != nil; n = n.parent {
		path = append(path, [2]int{n.x, n.z})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
