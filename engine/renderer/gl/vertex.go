package gl

import (
	"fmt"
	"slices"
	"unsafe"
)

// Attribute describes one attribute channel fed from a region of a vertex
// buffer.
type Attribute struct {
	Channel    uint32
	Count      int32
	Type       TypeCode
	Normalized bool
	Stride     int32
	Offset     int
	buffer     *VertexBuffer
}

// AttributeOf describes channel as values of V made of E components, read
// tightly packed from the start of buf. Count and Type come from the types:
// AttributeOf[float32, math.Vec3] is 3 floats.
func AttributeOf[E Scalar, V any](channel uint32, buf *VertexBuffer) Attribute {
	var v V
	return Attribute{
		Channel: channel,
		Count:   int32(int(unsafe.Sizeof(v)) / SizeOf[E]()),
		Type:    TypeOf[E](),
		buffer:  buf,
	}
}

// Interleaved reads the attribute every stride bytes starting at offset.
func (a Attribute) Interleaved(stride int32, offset int) Attribute {
	a.Stride = stride
	a.Offset = offset
	return a
}

// Normalize maps integer components to [0,1] or [-1,1].
func (a Attribute) Normalize() Attribute {
	a.Normalized = true
	return a
}

func (a Attribute) Buffer() *VertexBuffer { return a.buffer }

// VertexArray is a vertex layout: enabled attribute channels plus an
// optional index buffer. It references its buffers without owning them;
// they must outlive every draw that uses the layout.
//
// Channels enabled through Bind stay enabled until DisableAttribute or
// Destroy.
type VertexArray struct {
	name    Name[vertexArrayKind]
	enabled map[uint32]Attribute
	indices *IndexBuffer
}

func NewVertexArray(ctx *Context) (*VertexArray, error) {
	v := &VertexArray{enabled: make(map[uint32]Attribute)}
	if err := v.name.allocate(ctx, 0); err != nil {
		return nil, err
	}
	return v, nil
}

// Activate makes v the current vertex array.
func (v *VertexArray) Activate() error {
	if err := v.name.require(); err != nil {
		return err
	}
	v.name.ctx.bindVertexArray(v.name.id)
	return v.name.ctx.Check("bind vertex array")
}

// DeactivateVertexArray makes no vertex array current.
func DeactivateVertexArray(ctx *Context) {
	ctx.bindVertexArray(0)
}

// Bind points each attribute's channel at its buffer region and enables it.
// v is current while this runs and no vertex array is current afterwards.
func (v *VertexArray) Bind(attrs ...Attribute) error {
	if err := v.Activate(); err != nil {
		return err
	}
	ctx := v.name.ctx
	defer DeactivateVertexArray(ctx)
	for _, a := range attrs {
		if a.Count < 1 || a.Count > 4 {
			return fmt.Errorf("gl: attribute channel %d has %d components, want 1 to 4", a.Channel, a.Count)
		}
		if a.buffer == nil {
			return ErrInvalidResource
		}
		if err := a.buffer.Activate(); err != nil {
			return err
		}
		ctx.driver.VertexAttribPointer(a.Channel, a.Count, Enum(a.Type), a.Normalized, a.Stride, a.Offset)
		ctx.driver.EnableVertexAttribArray(a.Channel)
		if err := ctx.Check(fmt.Sprintf("attribute channel %d", a.Channel)); err != nil {
			return err
		}
		v.enabled[a.Channel] = a
	}
	// the pointers captured the buffer; the slot itself is not layout state
	ctx.bindBuffer(ARRAY_BUFFER, 0)
	return nil
}

// Indices attaches ib for indexed draws. The index type is taken from the
// last Load or ReserveFor of ib.
func (v *VertexArray) Indices(ib *IndexBuffer) error {
	if ib == nil || !ib.Valid() {
		return ErrInvalidResource
	}
	switch ib.ElementType() {
	case UByte, UShort, UInt:
	default:
		return fmt.Errorf("%w: %s", ErrIndexType, ib.ElementType())
	}
	if err := v.Activate(); err != nil {
		return err
	}
	ctx := v.name.ctx
	defer DeactivateVertexArray(ctx)
	ctx.bindBuffer(ELEMENT_ARRAY_BUFFER, ib.ID())
	if err := ctx.Check("bind index buffer"); err != nil {
		return err
	}
	v.indices = ib
	return nil
}

// DisableAttribute turns off channel.
func (v *VertexArray) DisableAttribute(channel uint32) error {
	if err := v.Activate(); err != nil {
		return err
	}
	ctx := v.name.ctx
	defer DeactivateVertexArray(ctx)
	ctx.driver.DisableVertexAttribArray(channel)
	delete(v.enabled, channel)
	return ctx.Check(fmt.Sprintf("disable attribute channel %d", channel))
}

// Attributes returns the enabled attributes ordered by channel.
func (v *VertexArray) Attributes() []Attribute {
	out := make([]Attribute, 0, len(v.enabled))
	for _, a := range v.enabled {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Attribute) int { return int(a.Channel) - int(b.Channel) })
	return out
}

func (v *VertexArray) IndexBuffer() *IndexBuffer { return v.indices }

// IndexType returns the element type of the attached index buffer.
func (v *VertexArray) IndexType() TypeCode {
	if v.indices == nil {
		return 0
	}
	return v.indices.ElementType()
}

func (v *VertexArray) ID() uint32      { return v.name.ID() }
func (v *VertexArray) Valid() bool     { return v.name.Valid() }
func (v *VertexArray) Release() uint32 { return v.name.Release() }

// Destroy disables every enabled channel and deletes the vertex array.
func (v *VertexArray) Destroy() {
	if v.name.Valid() && len(v.enabled) > 0 {
		ctx := v.name.ctx
		ctx.bindVertexArray(v.name.id)
		for _, a := range v.Attributes() {
			ctx.driver.DisableVertexAttribArray(a.Channel)
		}
		DeactivateVertexArray(ctx)
	}
	v.name.Destroy()
	v.enabled = make(map[uint32]Attribute)
	v.indices = nil
}

func (v *VertexArray) MoveFrom(src *VertexArray) {
	if v == src {
		return
	}
	v.Destroy()
	v.name.MoveFrom(&src.name)
	v.enabled, v.indices = src.enabled, src.indices
	src.enabled, src.indices = make(map[uint32]Attribute), nil
}

func (v *VertexArray) Move() *VertexArray {
	dst := &VertexArray{enabled: make(map[uint32]Attribute)}
	dst.MoveFrom(v)
	return dst
}

// drawElements issues an indexed draw of count indices starting at index
// start of the attached index buffer. v must be current.
func (v *VertexArray) drawElements(mode Primitive, start, count int) error {
	if v.indices == nil {
		return ErrNoIndexBuffer
	}
	t := v.indices.ElementType()
	ctx := v.name.ctx
	if ctx.state.vertexArray != v.name.id {
		ctx.bindVertexArray(v.name.id)
	}
	ctx.driver.DrawElements(Enum(mode), int32(count), Enum(t), start*TypeAlloc[t])
	return ctx.Check("draw elements")
}
