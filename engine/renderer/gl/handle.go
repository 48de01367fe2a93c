package gl

import "github.com/spaghettifunk/anima-gl/engine/core"

// noCopy makes go vet's copylocks check flag copies of owning values.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// objectKind describes how one kind of driver object is created and deleted.
type objectKind interface {
	create(d Driver, arg Enum) uint32
	release(c *Context, id uint32)
	String() string
}

type bufferKind struct{}

func (bufferKind) create(d Driver, _ Enum) uint32 { return d.GenBuffer() }
func (bufferKind) release(c *Context, id uint32) {
	c.driver.DeleteBuffer(id)
	c.forgetBuffer(id)
}
func (bufferKind) String() string { return "buffer" }

type textureKind struct{}

func (textureKind) create(d Driver, _ Enum) uint32 { return d.GenTexture() }
func (textureKind) release(c *Context, id uint32) {
	c.driver.DeleteTexture(id)
	c.forgetTexture(id)
}
func (textureKind) String() string { return "texture" }

type shaderKind struct{}

func (shaderKind) create(d Driver, stage Enum) uint32 { return d.CreateShader(stage) }
func (shaderKind) release(c *Context, id uint32)      { c.driver.DeleteShader(id) }
func (shaderKind) String() string                     { return "shader" }

type programKind struct{}

func (programKind) create(d Driver, _ Enum) uint32 { return d.CreateProgram() }
func (programKind) release(c *Context, id uint32)  { c.driver.DeleteProgram(id) }
func (programKind) String() string                 { return "program" }

type vertexArrayKind struct{}

func (vertexArrayKind) create(d Driver, _ Enum) uint32 { return d.GenVertexArray() }
func (vertexArrayKind) release(c *Context, id uint32) {
	c.driver.DeleteVertexArray(id)
	c.forgetVertexArray(id)
}
func (vertexArrayKind) String() string { return "vertex array" }

// Name is the owned identifier of one driver object of kind K. Exactly one
// Name owns a given identifier; Move and MoveFrom transfer it and leave the
// source holding 0, which makes its Destroy a no-op. Names live inside the
// resource structs and are never copied.
type Name[K objectKind] struct {
	noCopy noCopy
	ctx    *Context
	id     uint32
}

// allocate asks the driver for a new object. A zero identifier or a driver
// error fails the allocation.
func (n *Name[K]) allocate(ctx *Context, arg Enum) error {
	if ctx == nil {
		return ErrNoContext
	}
	var kind K
	id := kind.create(ctx.driver, arg)
	if err := ctx.Check("create " + kind.String()); err != nil {
		return err
	}
	if id == 0 {
		return &DriverError{Op: "create " + kind.String(), Code: OUT_OF_MEMORY}
	}
	n.ctx = ctx
	n.id = id
	return nil
}

// ID returns the driver identifier, 0 when nothing is owned.
func (n *Name[K]) ID() uint32 {
	return n.id
}

// Valid reports whether the name owns a driver object.
func (n *Name[K]) Valid() bool {
	return n.id != 0
}

func (n *Name[K]) Context() *Context {
	return n.ctx
}

// MoveFrom transfers ownership from src into n. Whatever n owned before is
// destroyed first.
func (n *Name[K]) MoveFrom(src *Name[K]) {
	if n == src {
		return
	}
	n.Destroy()
	n.ctx, n.id = src.ctx, src.id
	src.id = 0
}

// Release gives up ownership without deleting the driver object and returns
// its identifier.
func (n *Name[K]) Release() uint32 {
	id := n.id
	n.id = 0
	return id
}

// Destroy deletes the driver object if one is owned.
func (n *Name[K]) Destroy() {
	if n.id == 0 {
		return
	}
	var kind K
	kind.release(n.ctx, n.id)
	if err := n.ctx.Check("delete " + kind.String()); err != nil {
		core.LogError("%s", err)
	}
	n.id = 0
}

// require fails with ErrInvalidResource when nothing is owned.
func (n *Name[K]) require() error {
	if n.id == 0 {
		return ErrInvalidResource
	}
	return nil
}
