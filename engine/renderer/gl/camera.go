package gl

import (
	"github.com/spaghettifunk/anima-gl/engine/math"
)

// CameraBlock is the uniform block programs declare to receive CameraView.
const CameraBlock = "view"

// CameraView is the uniform block record: std140 lays out two mat4 back to
// back, which matches this struct.
type CameraView struct {
	Facing     math.Mat4
	Projection math.Mat4
}

// Camera owns the uniform buffer holding a CameraView and sequences the
// steps of a draw: program, then layout, then index range.
type Camera struct {
	buffer *UniformBuffer
	view   CameraView
	point  uint32
	layout *VertexArray
}

// NewCamera uploads view to a new uniform buffer served on binding point.
func NewCamera(ctx *Context, point uint32, view CameraView) (*Camera, error) {
	buf, err := NewUniformBuffer(ctx)
	if err != nil {
		return nil, err
	}
	if err := Load(buf, DynamicDraw, []CameraView{view}); err != nil {
		buf.Destroy()
		return nil, err
	}
	buf.buffer.Deactivate()
	return &Camera{buffer: buf, view: view, point: point}, nil
}

// UseProgram activates p and points its camera block at the camera's
// binding point.
func (c *Camera) UseProgram(p *Program) error {
	if err := p.Activate(); err != nil {
		return err
	}
	point, err := c.buffer.Activate(c.point)
	if err != nil {
		return err
	}
	return p.Block(CameraBlock).Set(point)
}

// UseLayout makes v the layout subsequent Draw calls read from.
func (c *Camera) UseLayout(v *VertexArray) error {
	if err := v.Activate(); err != nil {
		return err
	}
	c.layout = v
	return nil
}

// Draw issues an indexed triangle list over count indices starting at
// index start of the current layout's index buffer.
func (c *Camera) Draw(start, count int) error {
	return c.DrawMode(Triangles, start, count)
}

// DrawMode is Draw with another primitive.
func (c *Camera) DrawMode(mode Primitive, start, count int) error {
	if c.layout == nil || !c.layout.Valid() {
		return ErrNoLayout
	}
	return c.layout.drawElements(mode, start, count)
}

// Translate moves the view by d, applied after the current facing.
func (c *Camera) Translate(d math.Vec3) error {
	c.view.Facing = c.view.Facing.Mul(math.NewMat4Translation(d))
	return c.push()
}

// SetFacing replaces the view matrix.
func (c *Camera) SetFacing(m math.Mat4) error {
	c.view.Facing = m
	return c.push()
}

// SetProjection replaces the projection, typically after a resize.
func (c *Camera) SetProjection(m math.Mat4) error {
	c.view.Projection = m
	return c.push()
}

func (c *Camera) View() CameraView { return c.view }

func (c *Camera) BindingPoint() uint32 { return c.point }

func (c *Camera) Buffer() *UniformBuffer { return c.buffer }

// Layout returns the layout set by the last UseLayout.
func (c *Camera) Layout() *VertexArray { return c.layout }

func (c *Camera) Destroy() {
	c.buffer.Destroy()
	c.layout = nil
}

func (c *Camera) push() error {
	return Update(c.buffer, 0, []CameraView{c.view})
}

// Sequence starts a fluent draw sequence. Steps run in call order and the
// first failing step turns the rest into no-ops.
func (c *Camera) Sequence() *Sequence {
	return &Sequence{camera: c}
}

// Sequence chains camera steps:
//
//	err := cam.Sequence().Program(p).Layout(v).Draw(0, 24).Err()
type Sequence struct {
	camera *Camera
	err    error
}

func (s *Sequence) Program(p *Program) *Sequence {
	if s.err == nil {
		s.err = s.camera.UseProgram(p)
	}
	return s
}

func (s *Sequence) Layout(v *VertexArray) *Sequence {
	if s.err == nil {
		s.err = s.camera.UseLayout(v)
	}
	return s
}

func (s *Sequence) Draw(start, count int) *Sequence {
	if s.err == nil {
		s.err = s.camera.Draw(start, count)
	}
	return s
}

func (s *Sequence) Translate(d math.Vec3) *Sequence {
	if s.err == nil {
		s.err = s.camera.Translate(d)
	}
	return s
}

// Err returns the first error of the sequence.
func (s *Sequence) Err() error {
	return s.err
}
