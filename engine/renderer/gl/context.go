package gl

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-gl/engine/core"
)

// Context is the driver plus a mirror of its "current binding" registers.
// The driver state is global per GL context, so every Activate and
// Deactivate in this package goes through the Context that created the
// resource. A Context must only be used from the thread the GL context is
// current on.
type Context struct {
	ID     uuid.UUID
	driver Driver
	state  bindingState
}

type bindingState struct {
	// ARRAY_BUFFER and UNIFORM_BUFFER slots. ELEMENT_ARRAY_BUFFER is vertex
	// array state and lives in elements.
	buffers     map[Enum]uint32
	elements    map[uint32]uint32
	points      map[uint32]uint32
	unit        uint32
	textures    map[uint32]uint32
	program     uint32
	vertexArray uint32
}

// NewContext wraps a driver whose context is current on the calling thread.
func NewContext(driver Driver) (*Context, error) {
	if driver == nil {
		return nil, ErrNoContext
	}
	c := &Context{
		ID:     uuid.New(),
		driver: driver,
		state: bindingState{
			buffers:  make(map[Enum]uint32),
			elements: make(map[uint32]uint32),
			points:   make(map[uint32]uint32),
			textures: make(map[uint32]uint32),
		},
	}
	core.LogInfo("GL context %s: %s (%s)", c.ID, driver.GetString(VERSION), driver.GetString(RENDERER))
	return c, nil
}

func (c *Context) Driver() Driver {
	return c.driver
}

// Check drains the driver error queue. The first code is returned as a
// *DriverError, any further codes are logged.
func (c *Context) Check(op string) error {
	var first error
	// the queue holds at most one flag per code
	for i := 0; i < 8; i++ {
		code := c.driver.GetError()
		if code == NO_ERROR {
			break
		}
		if first == nil {
			first = &DriverError{Op: op, Code: code}
			continue
		}
		core.LogError("gl: %s: additional error %s", op, ErrorString(code))
	}
	return first
}

// Bound returns the buffer in slot target. ELEMENT_ARRAY_BUFFER reports the
// element buffer of the current vertex array.
func (c *Context) Bound(target Enum) uint32 {
	if target == ELEMENT_ARRAY_BUFFER {
		return c.state.elements[c.state.vertexArray]
	}
	return c.state.buffers[target]
}

// BoundPoint returns the uniform buffer attached to binding point.
func (c *Context) BoundPoint(point uint32) uint32 {
	return c.state.points[point]
}

func (c *Context) ActiveUnit() uint32 {
	return c.state.unit
}

func (c *Context) BoundTexture(unit uint32) uint32 {
	return c.state.textures[unit]
}

func (c *Context) CurrentProgram() uint32 {
	return c.state.program
}

func (c *Context) CurrentVertexArray() uint32 {
	return c.state.vertexArray
}

func (c *Context) bindBuffer(target Enum, id uint32) {
	c.driver.BindBuffer(target, id)
	if target == ELEMENT_ARRAY_BUFFER {
		c.state.elements[c.state.vertexArray] = id
		return
	}
	c.state.buffers[target] = id
}

func (c *Context) bindBufferBase(target Enum, point, id uint32) {
	// BindBufferBase also sets the generic binding
	c.driver.BindBufferBase(target, point, id)
	c.state.points[point] = id
	c.state.buffers[target] = id
}

func (c *Context) activeTexture(unit uint32) {
	c.driver.ActiveTexture(TEXTURE0 + Enum(unit))
	c.state.unit = unit
}

func (c *Context) bindTexture(unit, id uint32) {
	c.activeTexture(unit)
	c.driver.BindTexture(TEXTURE_2D, id)
	c.state.textures[unit] = id
}

func (c *Context) useProgram(id uint32) {
	c.driver.UseProgram(id)
	c.state.program = id
}

func (c *Context) bindVertexArray(id uint32) {
	c.driver.BindVertexArray(id)
	c.state.vertexArray = id
}

// The driver unbinds deleted objects from the current context; the forget
// helpers keep the mirror in step.

func (c *Context) forgetBuffer(id uint32) {
	for target, bound := range c.state.buffers {
		if bound == id {
			c.state.buffers[target] = 0
		}
	}
	for point, bound := range c.state.points {
		if bound == id {
			c.state.points[point] = 0
		}
	}
	if c.state.elements[c.state.vertexArray] == id {
		c.state.elements[c.state.vertexArray] = 0
	}
}

func (c *Context) forgetTexture(id uint32) {
	for unit, bound := range c.state.textures {
		if bound == id {
			c.state.textures[unit] = 0
		}
	}
}

func (c *Context) forgetVertexArray(id uint32) {
	delete(c.state.elements, id)
	if c.state.vertexArray == id {
		c.state.vertexArray = 0
	}
}
