package scene

import "github.com/arenashooter/core/internal/core/pool"

// Container is the engine-side registry of live scenes. Scenes built on a
// loader goroutine are added here only on the main goroutine.
type Container struct {
	scenes *pool.Pool[*Scene]
}

func NewContainer() *Container {
	return &Container{scenes: pool.New[*Scene]()}
}

func (c *Container) Add(s *Scene) pool.Handle {
	return c.scenes.Spawn(s)
}

func (c *Container) Get(h pool.Handle) (*Scene, error) {
	s, err := c.scenes.Get(h)
	if err != nil {
		return nil, err
	}
	return *s, nil
}

// Remove drops the scene and releases its physics world.
func (c *Container) Remove(h pool.Handle) bool {
	s, err := c.scenes.Free(h)
	if err != nil {
		return false
	}
	s.Physics.Clear()
	return true
}

func (c *Container) Count() uint32 { return c.scenes.Count() }
