package gl

import (
	"fmt"

	"github.com/spaghettifunk/anima-gl/engine/math"
)

// Primitive is the topology of an indexed draw.
type Primitive Enum

const (
	Points        = Primitive(POINTS)
	LineStrip     = Primitive(LINE_STRIP)
	LineLoop      = Primitive(LINE_LOOP)
	Lines         = Primitive(LINES)
	TriangleStrip = Primitive(TRIANGLE_STRIP)
	TriangleFan   = Primitive(TRIANGLE_FAN)
	Triangles     = Primitive(TRIANGLES)
	Patches       = Primitive(PATCHES)
)

func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case LineStrip:
		return "line strip"
	case LineLoop:
		return "line loop"
	case Lines:
		return "lines"
	case TriangleStrip:
		return "triangle strip"
	case TriangleFan:
		return "triangle fan"
	case Triangles:
		return "triangles"
	case Patches:
		return "patches"
	}
	return fmt.Sprintf("Primitive(0x%X)", uint32(p))
}

// Surface is one draw over a contiguous index range of a mesh.
type Surface struct {
	Mode  Primitive
	Start int
	Count int
}

// Mesh owns a vertex buffer, an index buffer and the layout tying them
// together, plus the surfaces drawn from them.
type Mesh struct {
	Vertices *VertexBuffer
	Indices  *IndexBuffer
	Layout   *VertexArray
	Surfaces []Surface
}

// NewMesh uploads vertices and indices and lays the vertices out with
// attrs. A nil attrs buffer means the mesh's own vertex buffer. Without
// surfaces the whole index range is one triangle list.
func NewMesh[V any, I Index](ctx *Context, vertices []V, indices []I, attrs []Attribute, surfaces ...Surface) (*Mesh, error) {
	m := &Mesh{}
	var err error
	if m.Vertices, err = NewVertexBuffer(ctx); err != nil {
		return nil, err
	}
	if m.Indices, err = NewIndexBuffer(ctx); err != nil {
		m.Destroy()
		return nil, err
	}
	if m.Layout, err = NewVertexArray(ctx); err != nil {
		m.Destroy()
		return nil, err
	}
	if err := Load(m.Vertices, StaticDraw, vertices); err != nil {
		m.Destroy()
		return nil, err
	}
	if err := Load(m.Indices, StaticDraw, indices); err != nil {
		m.Destroy()
		return nil, err
	}
	bound := make([]Attribute, len(attrs))
	for i, a := range attrs {
		if a.buffer == nil {
			a.buffer = m.Vertices
		}
		bound[i] = a
	}
	if err := m.Layout.Bind(bound...); err != nil {
		m.Destroy()
		return nil, err
	}
	if err := m.Layout.Indices(m.Indices); err != nil {
		m.Destroy()
		return nil, err
	}
	if len(surfaces) == 0 {
		surfaces = []Surface{{Mode: Triangles, Start: 0, Count: len(indices)}}
	}
	for _, s := range surfaces {
		if s.Start < 0 || s.Count < 0 || s.Start+s.Count > len(indices) {
			m.Destroy()
			return nil, fmt.Errorf("gl: surface [%d,%d) outside %d indices", s.Start, s.Start+s.Count, len(indices))
		}
	}
	m.Surfaces = surfaces
	return m, nil
}

// Draw activates the layout and draws every surface.
func (m *Mesh) Draw() error {
	if err := m.Layout.Activate(); err != nil {
		return err
	}
	for _, s := range m.Surfaces {
		if err := m.Layout.drawElements(s.Mode, s.Start, s.Count); err != nil {
			return err
		}
	}
	return nil
}

// IndexCount returns the number of indices uploaded.
func (m *Mesh) IndexCount() int {
	return m.Indices.Count()
}

func (m *Mesh) Destroy() {
	if m.Layout != nil {
		m.Layout.Destroy()
	}
	if m.Indices != nil {
		m.Indices.Destroy()
	}
	if m.Vertices != nil {
		m.Vertices.Destroy()
	}
}

// Object is a mesh drawn with a program under a model transform and a few
// material uniforms. It owns neither.
type Object struct {
	Mesh          *Mesh
	Program       *Program
	Color         math.Vec4
	Highlight     math.Vec4
	Highlighted   bool
	Shininess     float32
	SpecularColor math.Vec3
	transform     math.Mat4
}

func NewObject(mesh *Mesh, program *Program) *Object {
	return &Object{
		Mesh:          mesh,
		Program:       program,
		Color:         math.NewVec4One(),
		Highlight:     math.NewVec4(1, 1, 0, 1),
		Shininess:     32,
		SpecularColor: math.NewVec3One(),
		transform:     math.NewMat4Identity(),
	}
}

func (o *Object) Transform() math.Mat4 { return o.transform }

func (o *Object) SetTransform(m math.Mat4) { o.transform = m }

// Rotate, Translate and Scale apply after the current transform, in world
// space.
func (o *Object) Rotate(angle float32, axis math.Vec3) {
	o.transform = o.transform.Mul(math.NewMat4Rotation(axis, angle))
}

func (o *Object) Translate(d math.Vec3) {
	o.transform = o.transform.Mul(math.NewMat4Translation(d))
}

func (o *Object) Scale(s math.Vec3) {
	o.transform = o.transform.Mul(math.NewMat4Scale(s))
}

// PreRotate, PreTranslate and PreScale apply before the current transform,
// in object space.
func (o *Object) PreRotate(angle float32, axis math.Vec3) {
	o.transform = math.NewMat4Rotation(axis, angle).Mul(o.transform)
}

func (o *Object) PreTranslate(d math.Vec3) {
	o.transform = math.NewMat4Translation(d).Mul(o.transform)
}

func (o *Object) PreScale(s math.Vec3) {
	o.transform = math.NewMat4Scale(s).Mul(o.transform)
}

// Render draws o through cam. Uniforms the program does not declare are
// skipped.
func (o *Object) Render(cam *Camera) error {
	if err := cam.UseProgram(o.Program); err != nil {
		return err
	}
	color := o.Color
	if o.Highlighted {
		color = o.Highlight
	}
	if err := Uniform[math.Vec4](o.Program, "color").Set(color); err != nil {
		return err
	}
	if err := Uniform[math.Mat4](o.Program, "transform").Set(o.transform); err != nil {
		return err
	}
	if err := Uniform[float32](o.Program, "shininess").Set(o.Shininess); err != nil {
		return err
	}
	if err := Uniform[math.Vec3](o.Program, "specular_color").Set(o.SpecularColor); err != nil {
		return err
	}
	if err := cam.UseLayout(o.Mesh.Layout); err != nil {
		return err
	}
	return o.Mesh.Draw()
}
