// Package scene holds the scene graph, the per-scene physics world, and the
// engine-side registry of live scenes.
package scene

import (
	"fmt"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/vmath"
)

// NodeID identifies a node in a Graph.
type NodeID = pool.Handle

type Node struct {
	Name     string
	Parent   NodeID
	Position vmath.Vec3 // relative to the parent
}

func (n *Node) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitString("Name", &n.Name); err != nil {
		return err
	}
	if err := pool.VisitHandle(v, "Parent", &n.Parent); err != nil {
		return err
	}
	if err := n.Position.Visit("Position", v); err != nil {
		return err
	}
	return v.LeaveRegion()
}

// Graph is a flat pool of nodes linked by parent handles.
type Graph struct {
	nodes *pool.Pool[Node]
}

func NewGraph() *Graph {
	return &Graph{nodes: pool.New[Node]()}
}

func (g *Graph) Add(n Node) NodeID {
	return g.nodes.Spawn(n)
}

func (g *Graph) Node(id NodeID) (*Node, error) {
	return g.nodes.Get(id)
}

func (g *Graph) Remove(id NodeID) bool {
	_, err := g.nodes.Free(id)
	return err == nil
}

func (g *Graph) Count() uint32 { return g.nodes.Count() }

// GlobalPosition sums local positions up the parent chain.
func (g *Graph) GlobalPosition(id NodeID) (vmath.Vec3, error) {
	var pos vmath.Vec3
	for depth := 0; id.IsSome(); depth++ {
		if depth > 256 {
			return vmath.Vec3{}, fmt.Errorf("node %s: parent cycle", id)
		}
		n, err := g.nodes.Get(id)
		if err != nil {
			return vmath.Vec3{}, err
		}
		pos = pos.Add(n.Position)
		id = n.Parent
	}
	return pos, nil
}

func (g *Graph) Visit(name string, v *visit.Visitor) error {
	return pool.VisitPool(g.nodes, name, v)
}

// Scene pairs a graph with its physics world.
type Scene struct {
	Graph   *Graph
	Physics *physics.World
}

func New() *Scene {
	return &Scene{
		Graph:   NewGraph(),
		Physics: physics.NewWorld(),
	}
}

func (s *Scene) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := s.Graph.Visit("Graph", v); err != nil {
		return err
	}
	if err := s.Physics.Visit("Physics", v); err != nil {
		return err
	}
	return v.LeaveRegion()
}
